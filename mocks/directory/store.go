package main

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type employee struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"employee_name"`
	Salary int       `json:"employee_salary"`
	Age    int       `json:"employee_age"`
	Title  string    `json:"employee_title"`
	Email  string    `json:"employee_email"`
}

type createInput struct {
	Name   string `json:"name"`
	Salary int    `json:"salary"`
	Age    int    `json:"age"`
	Title  string `json:"title"`
}

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Frances", "Ken", "Radia", "Niklaus", "Margaret", "Dennis"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth", "Allen", "Thompson", "Perlman", "Wirth", "Hamilton", "Ritchie"}
	titles     = []string{"Engineer", "Senior Engineer", "Staff Engineer", "Manager", "Director", "Analyst", "Designer", "Recruiter"}
)

// store is the in-memory employee table. Order of insertion is the listing
// order.
type store struct {
	mu        sync.RWMutex
	employees []employee
}

func newStore(rng *rand.Rand, seed int) *store {
	s := &store{}
	for range seed {
		name := firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
		s.employees = append(s.employees, newEmployee(createInput{
			Name:   name,
			Salary: 40_000 + rng.IntN(160_000),
			Age:    18 + rng.IntN(50),
			Title:  titles[rng.IntN(len(titles))],
		}))
	}
	return s
}

func newEmployee(in createInput) employee {
	handle := strings.ToLower(strings.Join(strings.Fields(in.Name), "."))
	return employee{
		ID:     uuid.New(),
		Name:   in.Name,
		Salary: in.Salary,
		Age:    in.Age,
		Title:  in.Title,
		Email:  fmt.Sprintf("%s@company.example", handle),
	}
}

func (s *store) list() []employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]employee, len(s.employees))
	copy(out, s.employees)
	return out
}

func (s *store) get(id uuid.UUID) (employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if e.ID == id {
			return e, true
		}
	}
	return employee{}, false
}

func (s *store) create(in createInput) employee {
	e := newEmployee(in)
	s.mu.Lock()
	s.employees = append(s.employees, e)
	s.mu.Unlock()
	return e
}

// deleteByName removes the first employee with the given name.
func (s *store) deleteByName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.employees {
		if e.Name == name {
			s.employees = append(s.employees[:i], s.employees[i+1:]...)
			return true
		}
	}
	return false
}
