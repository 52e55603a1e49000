// Package validator checks generated employee records against the data model.
package validator

import (
	"fmt"

	"github.com/jittakal/s3selectlab/internal/errors"
	"github.com/jittakal/s3selectlab/pkg/employee"
)

// EmployeesValidator validates an employee collection before it is encoded.
type EmployeesValidator struct {
	ages employee.AgeRange
}

// NewEmployeesValidator creates a validator for the given age range.
func NewEmployeesValidator(ages employee.AgeRange) *EmployeesValidator {
	return &EmployeesValidator{ages: ages}
}

// Validate checks that identifiers run 1..N in order, names are present
// and every age lies within the configured range.
func (v *EmployeesValidator) Validate(employees employee.Employees) error {
	if !v.ages.Valid() {
		return fmt.Errorf("%w: %s", errors.ErrInvalidRange, v.ages)
	}

	for i, e := range employees.Employees {
		if e.ID != i+1 {
			return &errors.ValidationError{
				Index:  i,
				Field:  "id",
				Reason: fmt.Sprintf("expected %d, got %d", i+1, e.ID),
			}
		}

		if e.Name == "" {
			return &errors.ValidationError{
				Index:  i,
				Field:  "name",
				Reason: "required field is missing",
			}
		}

		if !v.ages.Contains(e.Age) {
			return &errors.ValidationError{
				Index:  i,
				Field:  "age",
				Reason: fmt.Sprintf("%d outside %s", e.Age, v.ages),
			}
		}
	}

	return nil
}
