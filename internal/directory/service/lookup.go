package service

import (
	"context"

	"github.com/google/uuid"

	"staffgate/internal/directory/models"
	"staffgate/internal/directory/upstream"
	dErrors "staffgate/pkg/domain-errors"
)

// GetByID asks upstream for the employee directly. When that call fails for
// any reason the employee is looked up in the snapshot cache instead, which
// may itself fetch the full directory.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (models.Employee, error) {
	employee, err := s.gateway.FetchByID(ctx, id)
	if err == nil {
		return employee, nil
	}

	s.logger.WarnContext(ctx, "upstream lookup by id failed, resolving from cache",
		"employee_id", id,
		"outcome", upstream.Classify(err),
		"error", err,
	)

	snap, cacheErr := s.cache.GetAll(ctx)
	if cacheErr != nil {
		s.metrics.IncrementFallback("error")
		return models.Employee{}, translate(cacheErr, "resolve employee "+id.String())
	}

	if cached, ok := snap.FindByID(id); ok {
		s.metrics.IncrementFallback("hit")
		return cached, nil
	}

	s.metrics.IncrementFallback("miss")
	return models.Employee{}, dErrors.Wrap(err, dErrors.CodeNotFound, "employee not found")
}
