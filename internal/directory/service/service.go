package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"staffgate/internal/directory/metrics"
	"staffgate/internal/directory/models"
	"staffgate/internal/directory/query"
	"staffgate/internal/directory/retry"
	"staffgate/internal/directory/upstream"
	dErrors "staffgate/pkg/domain-errors"
)

// Gateway is the upstream directory API.
type Gateway interface {
	FetchAll(ctx context.Context) ([]models.Employee, error)
	FetchByID(ctx context.Context, id uuid.UUID) (models.Employee, error)
	Create(ctx context.Context, input models.CreateEmployeeInput) (models.Employee, error)
	DeleteByName(ctx context.Context, name string) error
}

// SnapshotCache holds the last full directory snapshot.
type SnapshotCache interface {
	GetAll(ctx context.Context) (*models.Snapshot, error)
	Invalidate()
}

// Service is the directory facade the HTTP layer talks to. Reads other than
// by-id go through the snapshot cache; by-id goes upstream first and falls
// back to the snapshot; writes are retried on rate limiting and invalidate
// the snapshot on success.
type Service struct {
	gateway Gateway
	cache   SnapshotCache
	retrier *retry.Retrier
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(gateway Gateway, cache SnapshotCache, retrier *retry.Retrier, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		cache:   cache,
		retrier: retrier,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAll returns every employee in the current snapshot.
func (s *Service) GetAll(ctx context.Context) ([]models.Employee, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.Employees), nil
}

// SearchByName returns employees whose name contains term, ignoring case.
func (s *Service) SearchByName(ctx context.Context, term string) ([]models.Employee, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.SearchByName(snap.Employees, term), nil
}

// HighestSalary returns the largest salary in the directory, 0 when empty.
func (s *Service) HighestSalary(ctx context.Context) (int, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return query.HighestSalary(snap.Employees), nil
}

// TopTenNames returns the names of the ten best-paid employees.
func (s *Service) TopTenNames(ctx context.Context) ([]string, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.TopEarnerNames(snap.Employees, query.TopEarnersLimit), nil
}

func (s *Service) snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, translate(err, "load employee directory")
	}
	return snap, nil
}

// translate maps upstream failures onto domain error kinds. Errors that
// already carry a code pass through.
func translate(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch upstream.Classify(err) {
	case upstream.OutcomeRateLimited:
		return dErrors.Wrap(err, dErrors.CodeRateLimited, msg+": upstream rate limit exceeded")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg+": upstream unavailable")
	}
}
