package nbs

import "fmt"

// ValidationError reports a model field outside its documented range.
type ValidationError struct {
	Field string // e.g. "note key"
	Value int
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must be %d-%d, got %d", e.Field, e.Min, e.Max, e.Value)
}

// checkRange returns a *ValidationError if v is outside [min, max].
func checkRange(field string, v, min, max int) error {
	if v < min || v > max {
		return &ValidationError{Field: field, Value: v, Min: min, Max: max}
	}
	return nil
}
