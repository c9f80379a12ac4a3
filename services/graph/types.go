package graph

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Request describes a single platform API call. Path is version-relative
// ("/act_123/campaigns"); the client prepends the configured base URL and
// API version. AccountID, when set, serializes the call behind every other
// in-flight call for the same ad account.
type Request struct {
	Method    string
	Path      string
	AccountID string
	Query     url.Values
	Body      map[string]interface{}
}

// Response is the outcome of a successful platform call
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Usage      *UsageReport
	Attempts   int
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// ListEnvelope is the platform's standard list response shape
type ListEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Paging *Paging         `json:"paging,omitempty"`
}

// Paging carries cursor-based pagination state
type Paging struct {
	Cursors  *PagingCursors `json:"cursors,omitempty"`
	Next     string         `json:"next,omitempty"`
	Previous string         `json:"previous,omitempty"`
}

// PagingCursors are opaque platform cursors
type PagingCursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// DecodeList unmarshals a list response's data array into v and returns
// the paging block when present
func (r *Response) DecodeList(v interface{}) (*Paging, error) {
	var envelope ListEnvelope
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return envelope.Paging, nil
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		return nil, err
	}
	return envelope.Paging, nil
}

// CreatedID is the platform's minimal create/mutate response
type CreatedID struct {
	ID      string `json:"id"`
	Success bool   `json:"success,omitempty"`
}
