package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

// DefaultBaseFeeConfig is the configuration quoting falls back to before an
// admin has ever touched pricing. Keeps the checkout path always quotable.
func DefaultBaseFeeConfig() domain.BaseFeeConfig {
	return domain.BaseFeeConfig{
		BaseFee:       2.50,
		FeePerKm:      1.00,
		MinDistanceKm: 0,
		MaxDistanceKm: 30,
	}
}

// PricingSnapshot is a read-consistent copy of the whole pricing rule set.
// A snapshot never reflects a partially applied admin change.
type PricingSnapshot struct {
	Base           domain.BaseFeeConfig
	TimeRanges     []domain.TimeRange
	DistanceRanges []domain.DistanceRange
}

// QuoteInvalidator drops cached quotes after a pricing change.
type QuoteInvalidator interface {
	InvalidateQuotes(ctx context.Context) error
}

// PricingStore owns the active pricing configuration: one base config plus
// the configured time and distance ranges. All reads and writes go through
// a single read-write lock, so concurrent readers see either the old rule
// set or the new one, never a mix. Mutations are validated against the
// overlap invariants before anything is written, persisted write-through,
// and applied in memory only after the repository accepted them.
type PricingStore struct {
	mu             sync.RWMutex
	base           domain.BaseFeeConfig
	timeRanges     []domain.TimeRange
	distanceRanges []domain.DistanceRange

	repo   repository.PricingRepository
	quotes QuoteInvalidator
}

// NewPricingStore creates a PricingStore seeded with defaults. repo and
// quotes may be nil (hermetic tests run fully in memory).
func NewPricingStore(repo repository.PricingRepository, quotes QuoteInvalidator) *PricingStore {
	return &PricingStore{
		base:   DefaultBaseFeeConfig(),
		repo:   repo,
		quotes: quotes,
	}
}

// Load restores the persisted configuration. Called once at startup; a
// never-seeded database keeps the defaults.
func (s *PricingStore) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.repo.GetBaseConfig(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	} else {
		s.base = *base
	}

	timeRanges, err := s.repo.ListTimeRanges(ctx)
	if err != nil {
		return err
	}
	distanceRanges, err := s.repo.ListDistanceRanges(ctx)
	if err != nil {
		return err
	}

	s.timeRanges = timeRanges
	s.distanceRanges = distanceRanges
	return nil
}

// Snapshot returns a deep copy of the current rule set.
func (s *PricingStore) Snapshot() PricingSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := PricingSnapshot{
		Base:           s.base,
		TimeRanges:     make([]domain.TimeRange, len(s.timeRanges)),
		DistanceRanges: make([]domain.DistanceRange, len(s.distanceRanges)),
	}
	for i, tr := range s.timeRanges {
		days := make([]time.Weekday, len(tr.Days))
		copy(days, tr.Days)
		tr.Days = days
		snap.TimeRanges[i] = tr
	}
	copy(snap.DistanceRanges, s.distanceRanges)
	return snap
}

// ReplaceBaseConfig replaces the base configuration wholesale.
func (s *PricingStore) ReplaceBaseConfig(ctx context.Context, cfg domain.BaseFeeConfig) error {
	if !cfg.Valid() {
		return ErrInvalidBaseConfig
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveBaseConfig(ctx, cfg); err != nil {
			return err
		}
	}
	s.base = cfg

	s.dropQuotes(ctx)
	return nil
}

// AddTimeRange validates the candidate against every stored time range and
// inserts it. Overlap on a shared weekday is rejected with the conflicting
// range's id. A missing ID is filled with a fresh UUID.
func (s *PricingStore) AddTimeRange(ctx context.Context, tr domain.TimeRange) (domain.TimeRange, error) {
	if !tr.Valid() {
		return domain.TimeRange{}, ErrInvalidTimeRange
	}
	if tr.ID == "" {
		tr.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.timeRanges {
		if existing.Overlaps(tr) {
			return domain.TimeRange{}, &RangeConflictError{ConflictingID: existing.ID}
		}
	}

	if s.repo != nil {
		if err := s.repo.InsertTimeRange(ctx, tr); err != nil {
			return domain.TimeRange{}, err
		}
	}
	s.timeRanges = append(s.timeRanges, tr)

	s.dropQuotes(ctx)
	return tr, nil
}

// RemoveTimeRange deletes a time range by id. No-op if the id is absent.
func (s *PricingStore) RemoveTimeRange(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.DeleteTimeRange(ctx, id); err != nil {
			return err
		}
	}
	for i, tr := range s.timeRanges {
		if tr.ID == id {
			s.timeRanges = append(s.timeRanges[:i], s.timeRanges[i+1:]...)
			break
		}
	}

	s.dropQuotes(ctx)
	return nil
}

// AddDistanceRange validates the candidate band against every stored band
// and inserts it. Overlapping bands are rejected with the conflicting id.
func (s *PricingStore) AddDistanceRange(ctx context.Context, dr domain.DistanceRange) (domain.DistanceRange, error) {
	if !dr.Valid() {
		return domain.DistanceRange{}, ErrInvalidDistanceRange
	}
	if dr.ID == "" {
		dr.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.distanceRanges {
		if existing.Overlaps(dr) {
			return domain.DistanceRange{}, &RangeConflictError{ConflictingID: existing.ID}
		}
	}

	if s.repo != nil {
		if err := s.repo.InsertDistanceRange(ctx, dr); err != nil {
			return domain.DistanceRange{}, err
		}
	}
	s.distanceRanges = append(s.distanceRanges, dr)

	s.dropQuotes(ctx)
	return dr, nil
}

// RemoveDistanceRange deletes a distance range by id. No-op if absent.
func (s *PricingStore) RemoveDistanceRange(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.DeleteDistanceRange(ctx, id); err != nil {
			return err
		}
	}
	for i, dr := range s.distanceRanges {
		if dr.ID == id {
			s.distanceRanges = append(s.distanceRanges[:i], s.distanceRanges[i+1:]...)
			break
		}
	}

	s.dropQuotes(ctx)
	return nil
}

// dropQuotes invalidates cached quotes best-effort. Caller holds the lock.
func (s *PricingStore) dropQuotes(ctx context.Context) {
	if s.quotes == nil {
		return
	}
	if err := s.quotes.InvalidateQuotes(ctx); err != nil {
		log.Printf("failed to invalidate cached quotes: %v", err)
	}
}
