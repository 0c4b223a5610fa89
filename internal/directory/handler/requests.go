package handler

import (
	"regexp"

	"github.com/google/uuid"

	"staffgate/internal/directory/models"
	dErrors "staffgate/pkg/domain-errors"
)

var (
	// searchTermPattern restricts search terms to letters and dots.
	searchTermPattern = regexp.MustCompile(`^[a-zA-Z.]{1,100}$`)
	// personNamePattern admits the punctuation found in real names and titles.
	personNamePattern = regexp.MustCompile(`^[a-zA-Z\s.'-]{1,100}$`)
)

func parseSearchTerm(raw string) (string, error) {
	if !searchTermPattern.MatchString(raw) {
		return "", dErrors.New(dErrors.CodeBadRequest, "search string must be 1-100 letters or dots")
	}
	return raw, nil
}

func parseEmployeeID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "employee id must be a UUID")
	}
	return id, nil
}

// checkCreateFormat rejects names and titles with characters outside the
// allowed set. Empty values are left to the business rules.
func checkCreateFormat(in *models.CreateEmployeeInput) error {
	if in.Name != "" && !personNamePattern.MatchString(in.Name) {
		return dErrors.New(dErrors.CodeBadRequest, "employee name contains invalid characters")
	}
	if in.Title != "" && !personNamePattern.MatchString(in.Title) {
		return dErrors.New(dErrors.CodeBadRequest, "employee title contains invalid characters")
	}
	return nil
}
