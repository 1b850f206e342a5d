// Package reliability owns the per-engine trust weights used by fusion.
package reliability

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/clever-tipster/internal/logger"
	"github.com/yourusername/clever-tipster/internal/metrics"
	"github.com/yourusername/clever-tipster/internal/models"
)

const (
	// DriftErrorThreshold is the error rate above which an engine is penalised
	DriftErrorThreshold = 0.2
	// DriftPenalty multiplies the weight of a drifting engine
	DriftPenalty = 0.7
	roiEpsilon   = 1e-9
)

// Persistence loads and stores reliability profiles
type Persistence interface {
	ListProfiles(ctx context.Context) ([]*models.ReliabilityProfile, error)
	UpsertProfile(ctx context.Context, profile *models.ReliabilityProfile) error
}

// Snapshot is an immutable view of engine weights. Safe for concurrent reads.
type Snapshot struct {
	weights map[string]float64
	taken   time.Time
}

// Weight returns the weight for a source, or 1.0 for unknown sources
func (s *Snapshot) Weight(sourceID string) float64 {
	if s == nil {
		return models.DefaultReliabilityWeight
	}
	if w, ok := s.weights[sourceID]; ok {
		return w
	}
	return models.DefaultReliabilityWeight
}

// Len returns the number of sources with a profile
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.weights)
}

// TakenAt returns when the snapshot was published
func (s *Snapshot) TakenAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.taken
}

type entry struct {
	roi       float64
	hasROI    bool
	roiWeight float64
	errorRate float64
	updatedAt time.Time
}

func (e *entry) weight() float64 {
	w := e.roiWeight
	if e.errorRate > DriftErrorThreshold {
		w *= DriftPenalty
	}
	return clamp(w, models.MinReliabilityWeight, models.MaxReliabilityWeight)
}

// Store holds reliability profiles. Readers use lock-free snapshots,
// writers are serialised by mu.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	snapshot atomic.Pointer[Snapshot]
	validate *validator.Validate
	logger   *logger.ReliabilityLogger
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore(log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Store{
		entries:  make(map[string]*entry),
		validate: validator.New(),
		logger:   logger.NewReliabilityLogger(log),
		now:      time.Now,
	}
	s.publishLocked()
	return s
}

// Snapshot returns the current immutable weight view
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Weight returns the current weight of one source
func (s *Store) Weight(sourceID string) float64 {
	return s.Snapshot().Weight(sourceID)
}

// ApplyFeedback updates a source profile from a feedback signal and
// publishes a new snapshot. ROI updates rescale every source with an ROI.
func (s *Store) ApplyFeedback(signal models.FeedbackSignal) error {
	if err := s.validate.Struct(signal); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	if signal.ROI == nil && signal.ErrorRate == nil {
		return fmt.Errorf("%w: feedback for %q carries neither roi nor error_rate", models.ErrMalformedInput, signal.SourceID)
	}
	if signal.ROI != nil && (math.IsNaN(*signal.ROI) || math.IsInf(*signal.ROI, 0)) {
		return fmt.Errorf("%w: feedback for %q has non-numeric roi", models.ErrMalformedInput, signal.SourceID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(signal.SourceID)
	now := s.now()
	e.updatedAt = now

	if signal.ROI != nil {
		e.roi = *signal.ROI
		e.hasROI = true
		s.rescaleLocked()
		metrics.RecordFeedback("roi")
	}
	if signal.ErrorRate != nil {
		e.errorRate = *signal.ErrorRate
		metrics.RecordFeedback("error_rate")
	}

	s.publishLocked()

	w := e.weight()
	if signal.ROI != nil {
		s.logger.LogROIUpdate(signal.SourceID, e.roi, w)
	}
	if signal.ErrorRate != nil && e.errorRate > DriftErrorThreshold {
		s.logger.LogDriftPenalty(signal.SourceID, e.errorRate, w)
	}
	return nil
}

// Profile returns the profile of one source
func (s *Store) Profile(sourceID string) (models.ReliabilityProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sourceID]
	if !ok {
		return models.ReliabilityProfile{}, fmt.Errorf("%w: %s", models.ErrUnknownSource, sourceID)
	}
	return toProfile(sourceID, e), nil
}

// Profiles returns all profiles ordered by source id
func (s *Store) Profiles() []models.ReliabilityProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ReliabilityProfile, 0, len(s.entries))
	for id, e := range s.entries {
		out = append(out, toProfile(id, e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

// Restore replaces the store contents with persisted profiles
func (s *Store) Restore(ctx context.Context, p Persistence) error {
	profiles, err := p.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reliability profiles: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry, len(profiles))
	for _, prof := range profiles {
		if prof == nil || prof.SourceID == "" {
			continue
		}
		s.entries[prof.SourceID] = &entry{
			roi:       prof.ROI,
			hasROI:    prof.HasROI,
			roiWeight: models.DefaultReliabilityWeight,
			errorRate: prof.DriftErrorRate,
			updatedAt: prof.UpdatedAt,
		}
	}
	s.rescaleLocked()
	s.publishLocked()
	s.logger.LogProfilesRestored(len(s.entries))
	return nil
}

// Flush writes every profile to persistence
func (s *Store) Flush(ctx context.Context, p Persistence) error {
	for _, prof := range s.Profiles() {
		prof := prof
		if err := p.UpsertProfile(ctx, &prof); err != nil {
			return fmt.Errorf("failed to store profile %s: %w", prof.SourceID, err)
		}
	}
	return nil
}

func (s *Store) entryLocked(sourceID string) *entry {
	e, ok := s.entries[sourceID]
	if !ok {
		e = &entry{roiWeight: models.DefaultReliabilityWeight}
		s.entries[sourceID] = e
	}
	return e
}

// rescaleLocked min-max scales ROI weights into [0.5, 2.0]
func (s *Store) rescaleLocked() {
	minROI, maxROI := math.Inf(1), math.Inf(-1)
	for _, e := range s.entries {
		if !e.hasROI {
			continue
		}
		minROI = math.Min(minROI, e.roi)
		maxROI = math.Max(maxROI, e.roi)
	}
	span := maxROI - minROI
	for _, e := range s.entries {
		switch {
		case !e.hasROI:
			e.roiWeight = models.DefaultReliabilityWeight
		case span < roiEpsilon:
			e.roiWeight = models.DefaultReliabilityWeight
		default:
			e.roiWeight = models.MinReliabilityWeight +
				(models.MaxReliabilityWeight-models.MinReliabilityWeight)*(e.roi-minROI)/span
		}
	}
}

func (s *Store) publishLocked() {
	weights := make(map[string]float64, len(s.entries))
	for id, e := range s.entries {
		weights[id] = e.weight()
		metrics.UpdateReliabilityWeight(id, weights[id])
	}
	s.snapshot.Store(&Snapshot{weights: weights, taken: s.now()})
}

func toProfile(id string, e *entry) models.ReliabilityProfile {
	return models.ReliabilityProfile{
		SourceID:       id,
		Weight:         e.weight(),
		ROI:            e.roi,
		HasROI:         e.hasROI,
		DriftErrorRate: e.errorRate,
		UpdatedAt:      e.updatedAt,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
