package processor

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"listingpulse/server/config"
	"listingpulse/server/internal/models"
	"listingpulse/server/internal/queue"
)

// MockDB is a mock implementation of Transactor
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error {
	args := m.Called(fc)
	return args.Error(0)
}

func testConfig(maxRetries int) *config.Config {
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxBatchSize = 10
	cfg.BatchProcessing.MaxRetries = maxRetries
	cfg.BatchProcessing.RetryDelay = 0
	return cfg
}

func TestNewBatchProcessor(t *testing.T) {
	mockDB := &MockDB{}
	listingQueue := queue.NewListingQueue(10, nil)
	cfg := testConfig(3)
	logger := logrus.New()

	processor := NewBatchProcessor(mockDB, listingQueue, cfg, logger)

	assert.NotNil(t, processor)
	assert.Equal(t, mockDB, processor.db)
	assert.Equal(t, listingQueue, processor.queue)
	assert.Equal(t, cfg, processor.config)
	assert.Equal(t, logger, processor.logger)
}

func TestBatchProcessor_ProcessBatch(t *testing.T) {
	mockDB := &MockDB{}
	processor := NewBatchProcessor(mockDB, queue.NewListingQueue(10, nil), testConfig(2), logrus.New())

	batch := []*models.Listing{
		{ID: "listing-1", Address: "Test Address 1"},
		{ID: "listing-2", Address: "Test Address 2"},
	}

	mockDB.On("Transaction", mock.Anything).Return(nil).Once()
	err := processor.processBatch(batch)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), processor.Processed())

	// one attempt plus two retries
	mockDB.On("Transaction", mock.Anything).Return(errors.New("db error")).Times(3)
	err = processor.processBatch(batch)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch after 3 attempts")
	assert.Equal(t, int64(1), processor.Failed())
	assert.Equal(t, int64(2), processor.Processed())
	mockDB.AssertExpectations(t)
}

func TestBatchProcessor_RetryThenSucceed(t *testing.T) {
	mockDB := &MockDB{}
	processor := NewBatchProcessor(mockDB, queue.NewListingQueue(10, nil), testConfig(3), logrus.New())

	mockDB.On("Transaction", mock.Anything).Return(errors.New("database is locked")).Once()
	mockDB.On("Transaction", mock.Anything).Return(nil).Once()

	err := processor.processBatch([]*models.Listing{{ID: "listing-1"}})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), processor.Failed())
	mockDB.AssertNumberOfCalls(t, "Transaction", 2)
}

func TestBatchProcessor_StopAbortsRetries(t *testing.T) {
	mockDB := &MockDB{}
	cfg := testConfig(5)
	cfg.BatchProcessing.RetryDelay = 60
	processor := NewBatchProcessor(mockDB, queue.NewListingQueue(10, nil), cfg, logrus.New())

	mockDB.On("Transaction", mock.Anything).Return(errors.New("db error")).Once()
	processor.Stop()

	err := processor.processBatch([]*models.Listing{{ID: "listing-1"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), processor.Failed())
	mockDB.AssertNumberOfCalls(t, "Transaction", 1)
}

func TestBatchProcessor_StartSubscribes(t *testing.T) {
	mockDB := &MockDB{}
	listingQueue := queue.NewListingQueue(10, nil)
	processor := NewBatchProcessor(mockDB, listingQueue, testConfig(0), logrus.New())

	mockDB.On("Transaction", mock.Anything).Return(nil).Twice()

	processor.Start()
	listingQueue.Start()
	assert.NoError(t, listingQueue.Push([]*models.Listing{{ID: "a"}, {ID: "b"}}))
	assert.NoError(t, listingQueue.Push([]*models.Listing{{ID: "c"}}))
	listingQueue.Close()
	listingQueue.Wait()

	assert.Equal(t, int64(3), processor.Processed())
	assert.True(t, listingQueue.IsClosed())
	mockDB.AssertExpectations(t)
}
