package service

import (
	"context"

	"github.com/google/uuid"

	"staffgate/internal/directory/models"
	"staffgate/internal/directory/retry"
	"staffgate/internal/directory/upstream"
	dErrors "staffgate/pkg/domain-errors"
)

// Create validates input locally, then creates the employee upstream with
// rate-limit retries. The snapshot cache is invalidated only on success.
func (s *Service) Create(ctx context.Context, input *models.CreateEmployeeInput) (models.Employee, error) {
	if err := input.Validate(); err != nil {
		s.logger.InfoContext(ctx, "create employee rejected", "error", err)
		return models.Employee{}, err
	}

	created, err := retry.Do(ctx, s.retrier, string(upstream.OpCreate), func(ctx context.Context) (models.Employee, error) {
		return s.gateway.Create(ctx, *input)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "create employee failed", "error", err)
		return models.Employee{}, translate(err, "create employee")
	}

	s.cache.Invalidate()
	s.logger.InfoContext(ctx, "employee created",
		"employee_id", created.ID,
		"name", created.Name,
	)
	return created, nil
}

// DeleteByID resolves the employee's name with a single non-retried lookup,
// then deletes by name with rate-limit retries. It returns the deleted name.
func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) (string, error) {
	target, err := s.gateway.FetchByID(ctx, id)
	if err != nil {
		if upstream.IsNotFound(err) {
			return "", dErrors.Wrap(err, dErrors.CodeNotFound, "employee does not exist")
		}
		s.logger.ErrorContext(ctx, "resolve employee for delete failed",
			"employee_id", id,
			"error", err,
		)
		return "", translate(err, "resolve employee "+id.String())
	}

	err = retry.DoErr(ctx, s.retrier, string(upstream.OpDelete), func(ctx context.Context) error {
		return s.gateway.DeleteByName(ctx, target.Name)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "delete employee failed",
			"employee_id", id,
			"name", target.Name,
			"error", err,
		)
		return "", translate(err, "delete employee")
	}

	s.cache.Invalidate()
	s.logger.InfoContext(ctx, "employee deleted",
		"employee_id", id,
		"name", target.Name,
	)
	return target.Name, nil
}
