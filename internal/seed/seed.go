package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"listingpulse/server/config"
	"listingpulse/server/internal/database"
	"listingpulse/server/internal/models"
	"listingpulse/server/internal/processor"
	"listingpulse/server/internal/queue"
)

const pushBackoff = 50 * time.Millisecond

// Fixture is the YAML document read by the seed command
type Fixture struct {
	Listings  []*models.Listing          `yaml:"listings"`
	Mortgages []models.AssumableMortgage `yaml:"mortgages"`
}

// Result reports what a seed run stored
type Result struct {
	Listings  int64
	Mortgages int
}

// LoadFixture reads and validates a fixture file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

func ParseFixture(data []byte) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	for i, l := range fixture.Listings {
		if l == nil {
			return nil, fmt.Errorf("listing %d is empty", i)
		}
		if l.Address == "" {
			return nil, fmt.Errorf("listing %d has no address", i)
		}
		if l.Status != "" && !l.Status.Valid() {
			return nil, fmt.Errorf("listing %d has unknown status %q", i, l.Status)
		}
	}
	for i, m := range fixture.Mortgages {
		if m.CurrentBalance.IsNegative() || m.InterestRate.IsNegative() {
			return nil, fmt.Errorf("mortgage %d has a negative balance or rate", i)
		}
	}

	return &fixture, nil
}

// Seeder imports fixtures through the listing queue and batch processor
type Seeder struct {
	db     *database.Database
	config *config.Config
	logger *logrus.Logger
}

func NewSeeder(db *database.Database, cfg *config.Config, logger *logrus.Logger) *Seeder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Seeder{db: db, config: cfg, logger: logger}
}

// Run stores every listing of the fixture, then its mortgages. It fails if
// any listing batch could not be stored after retries.
func (s *Seeder) Run(ctx context.Context, fixture *Fixture) (*Result, error) {
	listingQueue := queue.NewListingQueue(s.config.BatchProcessing.QueueSize, s.logger)
	batchProcessor := processor.NewBatchProcessor(s.db.GetDB().WithContext(ctx), listingQueue, s.config, s.logger)
	batchProcessor.Start()
	listingQueue.Start()
	defer batchProcessor.Stop()

	pushErr := s.pushBatches(ctx, listingQueue, fixture.Listings)
	listingQueue.Close()
	listingQueue.Wait()

	if pushErr != nil {
		return nil, pushErr
	}
	if failed := batchProcessor.Failed(); failed > 0 {
		return nil, fmt.Errorf("failed to import %d listing batches", failed)
	}

	if err := s.db.CreateMortgages(ctx, fixture.Mortgages); err != nil {
		return nil, err
	}

	result := &Result{Listings: batchProcessor.Processed(), Mortgages: len(fixture.Mortgages)}
	s.logger.WithFields(logrus.Fields{
		"listings":  result.Listings,
		"mortgages": result.Mortgages,
	}).Info("Seed completed")
	return result, nil
}

// pushBatches splits listings into batches and waits for room when the queue is full
func (s *Seeder) pushBatches(ctx context.Context, q *queue.ListingQueue, listings []*models.Listing) error {
	size := s.config.BatchProcessing.MaxBatchSize
	for start := 0; start < len(listings); start += size {
		batch := listings[start:min(start+size, len(listings))]
		for {
			err := q.Push(batch)
			if err == nil {
				break
			}
			if !errors.Is(err, queue.ErrQueueFull) {
				return fmt.Errorf("failed to queue listings: %w", err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pushBackoff):
			}
		}
	}
	return nil
}
