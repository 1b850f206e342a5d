package reliability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/clever-tipster/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// MockPersistence is a mock implementation of Persistence
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) ListProfiles(ctx context.Context) ([]*models.ReliabilityProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReliabilityProfile), args.Error(1)
}

func (m *MockPersistence) UpsertProfile(ctx context.Context, profile *models.ReliabilityProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func roi(source string, v float64) models.FeedbackSignal {
	return models.FeedbackSignal{SourceID: source, ROI: models.Float64(v)}
}

func errorRate(source string, v float64) models.FeedbackSignal {
	return models.FeedbackSignal{SourceID: source, ErrorRate: models.Float64(v)}
}

func TestUnknownSourceDefaultsToOne(t *testing.T) {
	s := NewStore(quietLogger())
	assert.Equal(t, 1.0, s.Weight("nobody"))
	assert.Equal(t, 0, s.Snapshot().Len())

	var nilSnap *Snapshot
	assert.Equal(t, 1.0, nilSnap.Weight("x"))
}

func TestROIMinMaxScaling(t *testing.T) {
	s := NewStore(quietLogger())

	require.NoError(t, s.ApplyFeedback(roi("a", 0.10)))
	// single source: all ROIs equal
	assert.Equal(t, 1.0, s.Weight("a"))

	require.NoError(t, s.ApplyFeedback(roi("b", 0.30)))
	require.NoError(t, s.ApplyFeedback(roi("c", 0.20)))

	assert.InDelta(t, 0.5, s.Weight("a"), 1e-12)
	assert.InDelta(t, 2.0, s.Weight("b"), 1e-12)
	assert.InDelta(t, 1.25, s.Weight("c"), 1e-12)
}

func TestDriftPenaltySurvivesROIRescale(t *testing.T) {
	s := NewStore(quietLogger())

	require.NoError(t, s.ApplyFeedback(errorRate("lstm", 0.35)))
	assert.InDelta(t, 0.7, s.Weight("lstm"), 1e-12)

	require.NoError(t, s.ApplyFeedback(roi("lstm", 0.1)))
	require.NoError(t, s.ApplyFeedback(roi("value", 0.3)))
	// lstm has the lowest ROI: 0.5 * 0.7 clipped up to 0.5
	assert.InDelta(t, 0.5, s.Weight("lstm"), 1e-12)
	assert.InDelta(t, 2.0, s.Weight("value"), 1e-12)

	require.NoError(t, s.ApplyFeedback(errorRate("value", 0.5)))
	assert.InDelta(t, 1.4, s.Weight("value"), 1e-12)

	// recovered error rate lifts the penalty
	require.NoError(t, s.ApplyFeedback(errorRate("value", 0.1)))
	assert.InDelta(t, 2.0, s.Weight("value"), 1e-12)
}

func TestErrorRateAtThresholdIsNotPenalised(t *testing.T) {
	s := NewStore(quietLogger())
	require.NoError(t, s.ApplyFeedback(errorRate("x", 0.2)))
	assert.Equal(t, 1.0, s.Weight("x"))
}

func TestApplyFeedbackRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		signal models.FeedbackSignal
	}{
		{name: "missing source", signal: models.FeedbackSignal{ROI: models.Float64(0.1)}},
		{name: "no payload", signal: models.FeedbackSignal{SourceID: "a"}},
		{name: "error rate above one", signal: errorRate("a", 1.5)},
		{name: "negative error rate", signal: errorRate("a", -0.1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(quietLogger())
			err := s.ApplyFeedback(tt.signal)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrMalformedInput))
			assert.Equal(t, 0, s.Snapshot().Len())
		})
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	s := NewStore(quietLogger())
	require.NoError(t, s.ApplyFeedback(errorRate("a", 0.5)))

	snap := s.Snapshot()
	require.NoError(t, s.ApplyFeedback(errorRate("a", 0.0)))

	assert.InDelta(t, 0.7, snap.Weight("a"), 1e-12)
	assert.Equal(t, 1.0, s.Weight("a"))
}

func TestConcurrentFeedbackLosesNoUpdates(t *testing.T) {
	s := NewStore(quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.ApplyFeedback(roi(fmt.Sprintf("engine-%02d", i), float64(i)))
			_ = s.Snapshot().Weight("engine-00")
		}(i)
	}
	wg.Wait()

	profiles := s.Profiles()
	require.Len(t, profiles, 50)
	assert.Equal(t, "engine-00", profiles[0].SourceID)
	assert.InDelta(t, 0.5, profiles[0].Weight, 1e-12)
	assert.InDelta(t, 2.0, profiles[49].Weight, 1e-12)
}

func TestProfileUnknownSource(t *testing.T) {
	s := NewStore(quietLogger())
	_, err := s.Profile("ghost")
	assert.True(t, errors.Is(err, models.ErrUnknownSource))
}

func TestRestoreAndFlush(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPersistence)
	repo.On("ListProfiles", ctx).Return([]*models.ReliabilityProfile{
		{SourceID: "a", ROI: 0.0, HasROI: true},
		{SourceID: "b", ROI: 1.0, HasROI: true, DriftErrorRate: 0.3},
		nil,
	}, nil)
	repo.On("UpsertProfile", ctx, mock.AnythingOfType("*models.ReliabilityProfile")).Return(nil).Twice()

	s := NewStore(quietLogger())
	require.NoError(t, s.Restore(ctx, repo))

	assert.InDelta(t, 0.5, s.Weight("a"), 1e-12)
	assert.InDelta(t, 1.4, s.Weight("b"), 1e-12)

	require.NoError(t, s.Flush(ctx, repo))
	repo.AssertExpectations(t)
}

func TestRestorePropagatesError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPersistence)
	repo.On("ListProfiles", ctx).Return(nil, errors.New("connection refused"))

	s := NewStore(quietLogger())
	err := s.Restore(ctx, repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list reliability profiles")
}
