package processor

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"listingpulse/server/config"
	"listingpulse/server/internal/database"
	"listingpulse/server/internal/models"
	"listingpulse/server/internal/queue"
)

// Transactor runs fc inside a database transaction. *gorm.DB satisfies it.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor upserts listing batches taken from the queue
type BatchProcessor struct {
	db     Transactor
	logger *logrus.Logger
	config *config.Config
	queue  *queue.ListingQueue
	ctx    context.Context
	cancel context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.ListingQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the processor to its queue
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
}

// Stop aborts pending retries. Batches handled afterwards fail immediately.
func (p *BatchProcessor) Stop() {
	p.cancel()
}

// Processed returns the number of listings stored so far
func (p *BatchProcessor) Processed() int64 {
	return p.processed.Load()
}

// Failed returns the number of batches that exhausted their retries
func (p *BatchProcessor) Failed() int64 {
	return p.failed.Load()
}

// processBatch upserts one batch in a transaction, retrying on failure
func (p *BatchProcessor) processBatch(batch []*models.Listing) error {
	maxRetries := p.config.BatchProcessing.MaxRetries

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, maxRetries)
			select {
			case <-p.ctx.Done():
				p.failed.Add(1)
				return fmt.Errorf("batch processing stopped: %w", p.ctx.Err())
			case <-time.After(p.config.RetryDelay()):
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertListings(tx, batch); err != nil {
				return fmt.Errorf("failed to upsert listings batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.processed.Add(int64(len(batch)))
			p.logger.Infof("Successfully processed batch of %d listings", len(batch))
			return nil
		}

		p.logger.WithError(err).Error("Batch processing failed")
	}

	p.failed.Add(1)
	return fmt.Errorf("failed to process batch after %d attempts: %w", maxRetries+1, err)
}
