package query

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"staffgate/internal/directory/models"
)

func employee(name string, salary int) models.Employee {
	return models.Employee{ID: uuid.New(), Name: name, Salary: salary}
}

func names(employees []models.Employee) []string {
	out := make([]string, len(employees))
	for i, e := range employees {
		out[i] = e.Name
	}
	return out
}

func TestSearchByName(t *testing.T) {
	directory := []models.Employee{
		employee("John Doe", 75000),
		employee("Jane Smith", 85000),
		employee("john smith", 65000),
		employee("John.Doe", 70000),
		employee("Johnathan Price", 90000),
	}

	t.Run("matches case-insensitive substrings in snapshot order", func(t *testing.T) {
		got := SearchByName(directory, "john")
		assert.Equal(t, []string{"John Doe", "john smith", "John.Doe", "Johnathan Price"}, names(got))
	})

	t.Run("matches inside the name", func(t *testing.T) {
		got := SearchByName(directory, "SMITH")
		assert.Equal(t, []string{"Jane Smith", "john smith"}, names(got))
	})

	t.Run("no match is an empty, non-nil slice", func(t *testing.T) {
		got := SearchByName(directory, "zelda")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("empty directory", func(t *testing.T) {
		assert.Empty(t, SearchByName(nil, "john"))
	})
}

func TestHighestSalary(t *testing.T) {
	assert.Equal(t, 0, HighestSalary(nil))
	assert.Equal(t, 0, HighestSalary([]models.Employee{}))
	assert.Equal(t, 95000, HighestSalary([]models.Employee{employee("a", 75000), employee("b", 95000)}))
	assert.Equal(t, 95000, HighestSalary([]models.Employee{employee("b", 95000), employee("a", 75000)}))
}

func TestTopEarnerNames(t *testing.T) {
	t.Run("twelve employees yields the ten highest in order", func(t *testing.T) {
		var directory []models.Employee
		for i := range 12 {
			directory = append(directory, employee(fmt.Sprintf("emp-%02d", i), 200000-i*1000))
		}
		// Shuffle deterministically so the input is not already sorted.
		slices.Reverse(directory)

		got := TopEarnerNames(directory, TopEarnersLimit)
		want := []string{"emp-00", "emp-01", "emp-02", "emp-03", "emp-04", "emp-05", "emp-06", "emp-07", "emp-08", "emp-09"}
		assert.Equal(t, want, got)
	})

	t.Run("fewer than ten returns all", func(t *testing.T) {
		got := TopEarnerNames([]models.Employee{employee("low", 10), employee("high", 20)}, TopEarnersLimit)
		assert.Equal(t, []string{"high", "low"}, got)
	})

	t.Run("ties keep snapshot order", func(t *testing.T) {
		got := TopEarnerNames([]models.Employee{
			employee("first", 50),
			employee("top", 90),
			employee("second", 50),
			employee("third", 50),
		}, 3)
		assert.Equal(t, []string{"top", "first", "second"}, got)
	})

	t.Run("input order is not modified", func(t *testing.T) {
		directory := []models.Employee{employee("a", 1), employee("b", 3), employee("c", 2)}
		_ = TopEarnerNames(directory, TopEarnersLimit)
		assert.Equal(t, []string{"a", "b", "c"}, names(directory))
	})

	t.Run("empty directory and non-positive n", func(t *testing.T) {
		assert.Empty(t, TopEarnerNames(nil, TopEarnersLimit))
		assert.Empty(t, TopEarnerNames([]models.Employee{employee("a", 1)}, 0))
	})
}

func directoryGen() *rapid.Generator[[]models.Employee] {
	return rapid.SliceOfN(rapid.Custom(func(t *rapid.T) models.Employee {
		return models.Employee{
			ID:     uuid.New(),
			Name:   rapid.StringMatching(`[A-Za-z. ]{1,12}`).Draw(t, "name"),
			Salary: rapid.IntRange(1, 500000).Draw(t, "salary"),
		}
	}), 0, 30)
}

func TestTopEarnerNamesProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		directory := directoryGen().Draw(rt, "directory")
		n := rapid.IntRange(1, 15).Draw(rt, "n")

		got := TopEarnerNames(directory, n)

		if len(got) != min(n, len(directory)) {
			rt.Fatalf("expected %d names, got %d", min(n, len(directory)), len(got))
		}
		if len(directory) > 0 && len(got) > 0 {
			// The first name always belongs to someone paid the maximum.
			best := HighestSalary(directory)
			found := false
			for _, e := range directory {
				if e.Name == got[0] && e.Salary == best {
					found = true
				}
			}
			if !found {
				rt.Fatalf("first name %q is not paid the maximum %d", got[0], best)
			}
		}
	})
}

func TestSearchByNameProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		directory := directoryGen().Draw(rt, "directory")
		term := rapid.StringMatching(`[A-Za-z.]{0,3}`).Draw(rt, "term")

		got := SearchByName(directory, term)

		want := 0
		for _, e := range directory {
			if strings.Contains(strings.ToLower(e.Name), strings.ToLower(term)) {
				want++
			}
		}
		if len(got) != want {
			rt.Fatalf("expected %d matches for %q, got %d", want, term, len(got))
		}
		// Results are a subsequence of the directory.
		j := 0
		for _, e := range directory {
			if j < len(got) && e.ID == got[j].ID {
				j++
			}
		}
		if j != len(got) {
			rt.Fatalf("results are not in snapshot order")
		}
		// Searching in upper case finds the same entries.
		if upper := SearchByName(directory, strings.ToUpper(term)); len(upper) != len(got) {
			rt.Fatalf("case changed the result: %d vs %d", len(upper), len(got))
		}
	})
}
