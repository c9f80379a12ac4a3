package compliance

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"go.uber.org/zap"
)

// AutofillInput selects the metadata consulted for suggestions. PageID is
// optional; when empty the tenant's sole mapped page is used if one exists.
type AutofillInput struct {
	AdAccountID string `json:"ad_account_id"`
	PageID      string `json:"page_id,omitempty"`
}

// AutofillResult carries one suggestion per disclosure field. A field is nil
// when no source, not even the tenant fallback, produced a value.
type AutofillResult struct {
	Beneficiary *models.BeneficiarySuggestion `json:"beneficiary,omitempty"`
	Payor       *models.PayorSuggestion       `json:"payor,omitempty"`
}

// AutofillSuggestions derives beneficiary/payor candidates from platform
// metadata. Advisory only: nothing is persisted and a missing source just
// lowers confidence. Metadata fetches run in parallel and are best-effort,
// except a permission denial, which surfaces so the operator learns the
// token cannot read the metadata at all.
func (s *Service) AutofillSuggestions(ctx context.Context, rc models.RequestContext, input AutofillInput) (*AutofillResult, error) {
	pageID := input.PageID
	if pageID == "" {
		if pages := s.registry.AllowedPages(rc.TenantID); len(pages) == 1 {
			pageID = pages[0]
		}
	}
	if pageID != "" && !s.registry.PageAllowed(rc.TenantID, pageID) {
		pageID = ""
	}

	var (
		wg         sync.WaitGroup
		account    *accountMetadata
		accountErr error
		page       *pageMetadata
		pageErr    error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		account, accountErr = s.fetchAccountMetadata(ctx, rc, input.AdAccountID)
	}()

	if pageID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, pageErr = s.fetchPageMetadata(ctx, rc, input.AdAccountID, pageID)
		}()
	}

	wg.Wait()

	for _, err := range []error{accountErr, pageErr} {
		if services.IsPermissionError(err) {
			return nil, err
		}
	}

	displayName, err := s.registry.DisplayName(rc.TenantID)
	if err != nil {
		return nil, err
	}

	return &AutofillResult{
		Beneficiary: s.suggestBeneficiary(input.AdAccountID, account, page, pageID, displayName),
		Payor:       s.suggestPayor(input.AdAccountID, account, displayName),
	}, nil
}

func (s *Service) suggestBeneficiary(adAccountID string, account *accountMetadata, page *pageMetadata, pageID, displayName string) *models.BeneficiarySuggestion {
	if account != nil && account.Business != nil && account.Business.Name != "" {
		reasons := []string{
			fmt.Sprintf("ad account %s belongs to business %q", models.AccountPathID(adAccountID), account.Business.Name),
		}
		if account.Business.verified() {
			reasons = append(reasons, "the business is verified on the platform")
		}
		return &models.BeneficiarySuggestion{
			Value:      account.Business.Name,
			Source:     models.BeneficiarySourceBusiness,
			Confidence: models.ConfidenceHigh,
			Reasons:    reasons,
		}
	}

	if page != nil && page.OwnerBusiness != nil && page.OwnerBusiness.Name != "" {
		confidence := models.ConfidenceMedium
		reasons := []string{
			fmt.Sprintf("page %s is owned by business %q", pageID, page.OwnerBusiness.Name),
		}
		if account != nil && account.Business != nil && account.Business.ID == page.OwnerBusiness.ID {
			confidence = models.ConfidenceHigh
			reasons = append(reasons, "the page owner matches the ad account's business")
		}
		return &models.BeneficiarySuggestion{
			Value:      page.OwnerBusiness.Name,
			Source:     models.BeneficiarySourcePageOwnerBusiness,
			Confidence: confidence,
			Reasons:    reasons,
		}
	}

	if page != nil && page.Name != "" {
		return &models.BeneficiarySuggestion{
			Value:      page.Name,
			Source:     models.BeneficiarySourcePage,
			Confidence: models.ConfidenceMedium,
			Reasons: []string{
				fmt.Sprintf("page %s is named %q", pageID, page.Name),
				"no business is linked to the ad account",
			},
		}
	}

	if displayName != "" {
		return &models.BeneficiarySuggestion{
			Value:      displayName,
			Source:     models.BeneficiarySourceTenant,
			Confidence: models.ConfidenceLow,
			Reasons: []string{
				"no usable platform metadata was found",
				"tenant display name used as fallback",
			},
		}
	}

	return nil
}

func (s *Service) suggestPayor(adAccountID string, account *accountMetadata, displayName string) *models.PayorSuggestion {
	if account != nil && account.Name != "" {
		confidence := models.ConfidenceMedium
		reasons := []string{
			fmt.Sprintf("ad account %s is named %q", models.AccountPathID(adAccountID), account.Name),
		}
		if account.Business != nil && account.Business.Name != "" {
			confidence = models.ConfidenceHigh
			reasons = append(reasons, fmt.Sprintf("the account belongs to business %q", account.Business.Name))
		}
		return &models.PayorSuggestion{
			Value:      account.Name,
			Source:     models.PayorSourceAdAccount,
			Confidence: confidence,
			Reasons:    reasons,
		}
	}

	if account != nil && account.Business != nil && account.Business.Name != "" {
		return &models.PayorSuggestion{
			Value:      account.Business.Name,
			Source:     models.PayorSourceBusiness,
			Confidence: models.ConfidenceHigh,
			Reasons: []string{
				fmt.Sprintf("ad account %s belongs to business %q", models.AccountPathID(adAccountID), account.Business.Name),
			},
		}
	}

	if displayName != "" {
		return &models.PayorSuggestion{
			Value:      displayName,
			Source:     models.PayorSourceTenant,
			Confidence: models.ConfidenceLow,
			Reasons: []string{
				"no usable platform metadata was found",
				"tenant display name used as fallback",
			},
		}
	}

	return nil
}

// fetchAccountMetadata reads the ad account's name and owning business.
// Not-found means absence; anything else except permission denial is logged
// and treated as absence too.
func (s *Service) fetchAccountMetadata(ctx context.Context, rc models.RequestContext, adAccountID string) (*accountMetadata, error) {
	query := url.Values{}
	query.Set("fields", "name,business{id,name,verification_status}")

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+models.AccountPathID(adAccountID), adAccountID, query)
	if err != nil {
		if services.IsPermissionError(err) {
			return nil, err
		}
		if !services.IsNotFoundError(err) {
			s.logger.Warn("Ad account metadata fetch failed",
				zap.String("ad_account_id", adAccountID),
				zap.Error(err))
		}
		return nil, nil
	}

	var meta accountMetadata
	if err := resp.Decode(&meta); err != nil {
		return nil, nil
	}
	return &meta, nil
}

func (s *Service) fetchPageMetadata(ctx context.Context, rc models.RequestContext, adAccountID, pageID string) (*pageMetadata, error) {
	query := url.Values{}
	query.Set("fields", "name,owner_business{id,name}")

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+pageID, adAccountID, query)
	if err != nil {
		if services.IsPermissionError(err) {
			return nil, err
		}
		if !services.IsNotFoundError(err) {
			s.logger.Warn("Page metadata fetch failed",
				zap.String("page_id", pageID),
				zap.Error(err))
		}
		return nil, nil
	}

	var meta pageMetadata
	if err := resp.Decode(&meta); err != nil {
		return nil, nil
	}
	return &meta, nil
}

type businessRef struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	VerificationStatus string `json:"verification_status"`
}

func (b *businessRef) verified() bool {
	return b != nil && strings.EqualFold(b.VerificationStatus, "verified")
}

type accountMetadata struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Business *businessRef `json:"business"`
}

type pageMetadata struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	OwnerBusiness *businessRef `json:"owner_business"`
}
