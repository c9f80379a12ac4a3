package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
	mu           sync.Mutex
	insertedLogs []*models.AuditLog
}

func (m *MockAuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := m.Called(ctx, log)
	m.insertedLogs = append(m.insertedLogs, log)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if log := args.Get(0); log != nil {
		return log.(*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) GetByTenantID(ctx context.Context, tenantID string, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) GetByDateRange(ctx context.Context, tenantID string, start, end time.Time, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, start, end, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) GetByAction(ctx context.Context, tenantID string, action models.AuditAction, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, action, limit, offset)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.AuditLog, error) {
	args := m.Called(ctx, requestID)
	if logs := args.Get(0); logs != nil {
		return logs.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) WithTx(tx repositories.Transaction) repositories.AuditRepository {
	args := m.Called(tx)
	return args.Get(0).(repositories.AuditRepository)
}

func (m *MockAuditRepository) GetInsertedLogs() []*models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertedLogs
}

func TestAuditService_StartStop(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  10,
		WorkerCount: 2,
	}

	service := NewAuditService(mockRepo, logger, config)

	// Start service
	err := service.Start()
	require.NoError(t, err)

	stats := service.GetStats()
	assert.True(t, stats.Started)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 10, stats.BufferSize)

	// Cannot start again
	err = service.Start()
	assert.Error(t, err)

	// Stop service
	err = service.Stop(5 * time.Second)
	require.NoError(t, err)
}

func TestAuditService_LogEvent(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  100,
		WorkerCount: 2,
	}

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	log := models.NewAuditLog("acme", models.AuditActionCampaignCreated, models.ResourceKindCampaign)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	event := &AuditEvent{
		Log:      log,
		Priority: 1,
	}

	// Log event (non-blocking)
	err = service.LogEvent(event)
	require.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	// Verify event was processed
	insertedLogs := mockRepo.GetInsertedLogs()
	assert.Equal(t, 1, len(insertedLogs))
	assert.Equal(t, "acme", insertedLogs[0].TenantID)
	assert.Equal(t, models.AuditActionCampaignCreated, insertedLogs[0].Action)
}

func TestAuditService_LogEventBlocking(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  100,
		WorkerCount: 2,
	}

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	log := models.NewAuditLog("acme", models.AuditActionDsaUpdated, models.ResourceKindAccount)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	event := &AuditEvent{
		Log:      log,
		Priority: 1,
	}

	ctx := context.Background()
	err = service.LogEventBlocking(ctx, event)
	require.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	// Verify event was processed
	insertedLogs := mockRepo.GetInsertedLogs()
	assert.GreaterOrEqual(t, len(insertedLogs), 1)
}

func TestAuditService_MultipleEvents(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  100,
		WorkerCount: 3,
	}

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	// Log multiple events
	eventCount := 50
	for i := 0; i < eventCount; i++ {
		log := models.NewAuditLog("acme", models.AuditActionAdSetUpdated, models.ResourceKindAdSet)
		event := &AuditEvent{
			Log:      log,
			Priority: 1,
		}
		err = service.LogEvent(event)
		require.NoError(t, err)
	}

	// Wait for all events to be processed
	time.Sleep(500 * time.Millisecond)

	// Verify all events were processed
	insertedLogs := mockRepo.GetInsertedLogs()
	assert.Equal(t, eventCount, len(insertedLogs))
}

func TestAuditService_ConcurrentLogging(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  1000,
		WorkerCount: 5,
	}

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	// Log events concurrently
	goroutineCount := 10
	eventsPerGoroutine := 10
	var wg sync.WaitGroup

	for i := 0; i < goroutineCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				log := models.NewAuditLog("acme", models.AuditActionAdUpdated, models.ResourceKindAd)
				event := &AuditEvent{
					Log:      log,
					Priority: 1,
				}
				service.LogEvent(event)
			}
		}()
	}

	wg.Wait()

	// Wait for all events to be processed
	time.Sleep(1 * time.Second)

	// Verify all events were processed
	insertedLogs := mockRepo.GetInsertedLogs()
	expectedCount := goroutineCount * eventsPerGoroutine
	assert.Equal(t, expectedCount, len(insertedLogs))
}

func TestAuditService_LogMutation(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := DefaultConfig()

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	rc := models.RequestContext{
		TenantID:    "acme",
		ActorUserID: "user-1",
		AdAccountID: "act_123",
	}

	err = service.LogMutation(rc, "req-9", models.AuditActionCampaignCreated, models.ResourceKindCampaign, "901", map[string]interface{}{
		"name": "Spring Sale",
	})
	require.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	insertedLogs := mockRepo.GetInsertedLogs()
	require.Equal(t, 1, len(insertedLogs))
	assert.Equal(t, models.AuditActionCampaignCreated, insertedLogs[0].Action)
	assert.Equal(t, "req-9", insertedLogs[0].RequestID)
	require.NotNil(t, insertedLogs[0].ActorUserID)
	assert.Equal(t, "user-1", *insertedLogs[0].ActorUserID)
	require.NotNil(t, insertedLogs[0].ResourceID)
	assert.Equal(t, "901", *insertedLogs[0].ResourceID)
}

func TestAuditService_LogIsolationRejected(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := DefaultConfig()

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	rc := models.RequestContext{TenantID: "acme"}

	err = service.LogIsolationRejected(rc, "req-3", models.ResourceKindCampaign, "999", "campaign 999 belongs to another tenant")
	require.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	insertedLogs := mockRepo.GetInsertedLogs()
	require.Equal(t, 1, len(insertedLogs))
	assert.Equal(t, models.AuditActionIsolationRejected, insertedLogs[0].Action)
	require.NotNil(t, insertedLogs[0].ResourceID)
	assert.Equal(t, "999", *insertedLogs[0].ResourceID)
	require.NotNil(t, insertedLogs[0].ErrorMessage)
	assert.Contains(t, *insertedLogs[0].ErrorMessage, "another tenant")
}

func TestAuditService_LogDefaultPageSet(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := DefaultConfig()

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	rc := models.RequestContext{TenantID: "acme", ActorUserID: "user-1"}

	err = service.LogDefaultPageSet(rc, "req-5", "act_123", "777")
	require.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	insertedLogs := mockRepo.GetInsertedLogs()
	require.Equal(t, 1, len(insertedLogs))
	assert.Equal(t, models.AuditActionDefaultPageSet, insertedLogs[0].Action)
	require.NotNil(t, insertedLogs[0].AdAccountID)
	assert.Equal(t, "act_123", *insertedLogs[0].AdAccountID)
	require.NotNil(t, insertedLogs[0].ResourceID)
	assert.Equal(t, "777", *insertedLogs[0].ResourceID)
}

func TestAuditService_BufferFull(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  5,
		WorkerCount: 1,
	}

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	// Slow down processing
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		time.Sleep(100 * time.Millisecond)
	})

	// Fill buffer
	successCount := 0
	for i := 0; i < 20; i++ {
		log := models.NewAuditLog("acme", models.AuditActionAdCreated, models.ResourceKindAd)
		event := &AuditEvent{
			Log:      log,
			Priority: 1,
		}
		err = service.LogEvent(event)
		if err == nil {
			successCount++
		}
	}

	// Should have some failures due to buffer full
	assert.Less(t, successCount, 20)

	// Wait for processing
	time.Sleep(3 * time.Second)
}

func TestAuditService_StopTimeout(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  100,
		WorkerCount: 1,
	}

	service := NewAuditService(mockRepo, logger, config)
	err := service.Start()
	require.NoError(t, err)

	// Very slow processing
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		time.Sleep(10 * time.Second)
	})

	// Add one event that will take long to process
	log := models.NewAuditLog("acme", models.AuditActionAdCreated, models.ResourceKindAd)
	event := &AuditEvent{
		Log:      log,
		Priority: 1,
	}
	service.LogEvent(event)

	// Stop with short timeout
	err = service.Stop(100 * time.Millisecond)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestAuditService_GetStats(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := new(MockAuditRepository)
	config := Config{
		BufferSize:  100,
		WorkerCount: 5,
	}

	service := NewAuditService(mockRepo, logger, config)

	// Before start
	stats := service.GetStats()
	assert.False(t, stats.Started)
	assert.Equal(t, 5, stats.WorkerCount)
	assert.Equal(t, 100, stats.BufferSize)
	assert.Equal(t, 0, stats.PendingEvents)

	// After start
	err := service.Start()
	require.NoError(t, err)
	defer service.Stop(5 * time.Second)

	stats = service.GetStats()
	assert.True(t, stats.Started)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 10000, config.BufferSize)
	assert.Equal(t, 5, config.WorkerCount)
}
