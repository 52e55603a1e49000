// Package generator produces synthetic employee records.
package generator

import (
	"log/slog"
	"math/rand"

	"github.com/jaswdr/faker"

	"github.com/jittakal/s3selectlab/pkg/employee"
)

// Config configures the employee generator.
type Config struct {
	Count  int
	MinAge int
	MaxAge int // exclusive
	Seed   int64
}

// Generator generates fake employee records.
type Generator struct {
	config Config
	faker  faker.Faker
	logger *slog.Logger
}

// New creates a new employee generator.
// A zero seed gives non-reproducible output.
func New(config Config, logger *slog.Logger) *Generator {
	f := faker.New()
	if config.Seed != 0 {
		f = faker.NewWithSeed(rand.NewSource(config.Seed))
	}

	return &Generator{
		config: config,
		faker:  f,
		logger: logger,
	}
}

// AgeRange returns the configured age bounds.
func (g *Generator) AgeRange() employee.AgeRange {
	return employee.AgeRange{Min: g.config.MinAge, Max: g.config.MaxAge}
}

// Generate returns exactly Count employees with identifiers 1..Count.
func (g *Generator) Generate() employee.Employees {
	count := g.config.Count
	if count < 0 {
		count = 0
	}

	employees := make([]employee.Employee, 0, count)
	for i := 1; i <= count; i++ {
		employees = append(employees, employee.Employee{
			ID:   i,
			Name: g.faker.Person().Name(),
			Age:  g.randomAge(),
		})
	}

	g.logger.Debug("generated employees",
		"count", count,
		"age_range", g.AgeRange().String(),
	)

	return employee.Employees{Employees: employees}
}

// randomAge draws from [MinAge, MaxAge). IntBetween is inclusive on both ends.
func (g *Generator) randomAge() int {
	if g.config.MaxAge-1 <= g.config.MinAge {
		return g.config.MinAge
	}
	return g.faker.IntBetween(g.config.MinAge, g.config.MaxAge-1)
}
