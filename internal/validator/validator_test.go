package validator

import (
	stderrors "errors"
	"testing"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
)

func TestNewEmployeesValidator(t *testing.T) {
	validator := NewEmployeesValidator(employee.AgeRange{Min: 21, Max: 58})
	if validator == nil {
		t.Fatal("expected non-nil validator")
	}
}

func TestEmployeesValidator_ValidateSuccess(t *testing.T) {
	validator := NewEmployeesValidator(employee.AgeRange{Min: 21, Max: 58})

	tests := []struct {
		name      string
		employees employee.Employees
	}{
		{
			name:      "empty collection",
			employees: employee.Employees{},
		},
		{
			name: "valid records",
			employees: employee.Employees{Employees: []employee.Employee{
				{ID: 1, Name: "Ada Lovelace", Age: 21},
				{ID: 2, Name: "Alan Turing", Age: 41},
				{ID: 3, Name: "Grace Hopper", Age: 57},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validator.Validate(tt.employees); err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestEmployeesValidator_ValidateFailure(t *testing.T) {
	validator := NewEmployeesValidator(employee.AgeRange{Min: 21, Max: 58})

	tests := []struct {
		name      string
		employees []employee.Employee
		wantIndex int
		wantField string
	}{
		{
			name: "id gap",
			employees: []employee.Employee{
				{ID: 1, Name: "A", Age: 30},
				{ID: 3, Name: "B", Age: 30},
			},
			wantIndex: 1,
			wantField: "id",
		},
		{
			name: "ids start at zero",
			employees: []employee.Employee{
				{ID: 0, Name: "A", Age: 30},
			},
			wantIndex: 0,
			wantField: "id",
		},
		{
			name: "missing name",
			employees: []employee.Employee{
				{ID: 1, Name: "", Age: 30},
			},
			wantIndex: 0,
			wantField: "name",
		},
		{
			name: "age at exclusive max",
			employees: []employee.Employee{
				{ID: 1, Name: "A", Age: 30},
				{ID: 2, Name: "B", Age: 58},
			},
			wantIndex: 1,
			wantField: "age",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(employee.Employees{Employees: tt.employees})

			var validationErr *errors.ValidationError
			if !stderrors.As(err, &validationErr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if validationErr.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", validationErr.Index, tt.wantIndex)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", validationErr.Field, tt.wantField)
			}
		})
	}
}

func TestEmployeesValidator_InvalidRange(t *testing.T) {
	validator := NewEmployeesValidator(employee.AgeRange{Min: 58, Max: 21})

	err := validator.Validate(employee.Employees{})
	if !stderrors.Is(err, errors.ErrInvalidRange) {
		t.Errorf("Validate() error = %v, want ErrInvalidRange", err)
	}
}
