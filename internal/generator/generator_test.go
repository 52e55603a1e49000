package generator

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerator_Count(t *testing.T) {
	for _, n := range []int{0, 1, 3, 250} {
		gen := New(Config{Count: n, MinAge: 21, MaxAge: 58, Seed: 42}, testLogger())
		employees := gen.Generate()

		if employees.Len() != n {
			t.Errorf("Generate() len = %d, want %d", employees.Len(), n)
		}
	}
}

func TestGenerator_NegativeCount(t *testing.T) {
	gen := New(Config{Count: -5, MinAge: 21, MaxAge: 58}, testLogger())

	if got := gen.Generate().Len(); got != 0 {
		t.Errorf("Generate() len = %d, want 0", got)
	}
}

func TestGenerator_SequentialIDs(t *testing.T) {
	gen := New(Config{Count: 500, MinAge: 21, MaxAge: 58, Seed: 7}, testLogger())

	for i, e := range gen.Generate().Employees {
		if e.ID != i+1 {
			t.Fatalf("employees[%d].ID = %d, want %d", i, e.ID, i+1)
		}
	}
}

func TestGenerator_AgeBounds(t *testing.T) {
	tests := []struct {
		name   string
		minAge int
		maxAge int
	}{
		{"default range", 21, 58},
		{"narrow range", 30, 32},
		{"single age", 40, 41},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := New(Config{Count: 1000, MinAge: tt.minAge, MaxAge: tt.maxAge, Seed: 1}, testLogger())
			r := gen.AgeRange()

			for _, e := range gen.Generate().Employees {
				if !r.Contains(e.Age) {
					t.Fatalf("employee %d age %d outside %s", e.ID, e.Age, r)
				}
			}
		})
	}
}

func TestGenerator_NamesPresent(t *testing.T) {
	gen := New(Config{Count: 100, MinAge: 21, MaxAge: 58, Seed: 3}, testLogger())

	for _, e := range gen.Generate().Employees {
		if e.Name == "" {
			t.Fatalf("employee %d has empty name", e.ID)
		}
	}
}

func TestGenerator_SeedReproducible(t *testing.T) {
	cfg := Config{Count: 50, MinAge: 21, MaxAge: 58, Seed: 99}

	a := New(cfg, testLogger()).Generate()
	b := New(cfg, testLogger()).Generate()

	for i := range a.Employees {
		if a.Employees[i] != b.Employees[i] {
			t.Fatalf("employees[%d] differ: %+v vs %+v", i, a.Employees[i], b.Employees[i])
		}
	}
}
