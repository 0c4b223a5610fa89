// Package query computes derived views over a directory snapshot. Every
// function is pure: inputs are read, never reordered or modified.
package query

import (
	"cmp"
	"slices"
	"strings"

	"staffgate/internal/directory/models"
)

// TopEarnersLimit is how many names TopEarnerNames returns for the API.
const TopEarnersLimit = 10

// SearchByName returns the employees whose name contains term, ignoring
// case, in snapshot order. The result is never nil.
func SearchByName(employees []models.Employee, term string) []models.Employee {
	needle := strings.ToLower(term)
	matches := make([]models.Employee, 0)
	for _, e := range employees {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			matches = append(matches, e)
		}
	}
	return matches
}

// HighestSalary returns the largest salary, or 0 for an empty directory.
func HighestSalary(employees []models.Employee) int {
	highest := 0
	for i, e := range employees {
		if i == 0 || e.Salary > highest {
			highest = e.Salary
		}
	}
	return highest
}

// TopEarnerNames returns the names of the n best-paid employees, highest
// first. Equal salaries keep snapshot order.
func TopEarnerNames(employees []models.Employee, n int) []string {
	if n <= 0 {
		return []string{}
	}
	ranked := slices.Clone(employees)
	slices.SortStableFunc(ranked, func(a, b models.Employee) int {
		return cmp.Compare(b.Salary, a.Salary)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, len(ranked))
	for i, e := range ranked {
		names[i] = e.Name
	}
	return names
}
