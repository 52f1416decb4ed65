package split

import (
	"errors"
	"fmt"
	"strings"

	"energyforecast/pkg/contracts/domain"
)

// ErrorType classifies split failures
type ErrorType string

const (
	ErrorTypeFieldNotFound    ErrorType = "field_not_found"
	ErrorTypeInvalidParameter ErrorType = "invalid_parameter"
	ErrorTypeEmptyWindow      ErrorType = "empty_window"
	ErrorTypeNoFoldsProduced  ErrorType = "no_folds_produced"
)

// Window names reported by EmptyWindowError
const (
	WindowTrain      = "train"
	WindowValidation = "validation"
)

// FieldNotFoundError is returned when the requested timestamp (or target) field
// is not part of the table's field set.
type FieldNotFoundError struct {
	Field     string   `json:"field"`
	Available []string `json:"available"`
}

// Error implements the error interface
func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("'%s' not found in columns: [%s]", e.Field, strings.Join(e.Available, ", "))
}

// Kind returns the error classification
func (e *FieldNotFoundError) Kind() ErrorType { return ErrorTypeFieldNotFound }

// InvalidParameterError is returned when a fraction or count is outside its documented range.
type InvalidParameterError struct {
	Param  string `json:"parameter"`
	Value  any    `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// Error implements the error interface
func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Param, e.Value, e.Reason)
}

// Kind returns the error classification
func (e *InvalidParameterError) Kind() ErrorType { return ErrorTypeInvalidParameter }

// EmptyWindowError is returned when a computed window size rounds down to zero rows.
type EmptyWindowError struct {
	Window   string  `json:"window"`
	Rows     int     `json:"rows"`
	Fraction float64 `json:"fraction"`
}

// Error implements the error interface
func (e *EmptyWindowError) Error() string {
	return fmt.Sprintf("%s window is empty: floor(%d * %g) = 0", e.Window, e.Rows, e.Fraction)
}

// Kind returns the error classification
func (e *EmptyWindowError) Kind() ErrorType { return ErrorTypeEmptyWindow }

// NoFoldsProducedError is returned when parameters are individually valid but the
// first validation window already runs past the end of the data.
type NoFoldsProducedError struct {
	Rows      int `json:"rows"`
	TrainSize int `json:"train_size"`
	ValSize   int `json:"val_size"`
	NFolds    int `json:"n_folds"`
}

// Error implements the error interface
func (e *NoFoldsProducedError) Error() string {
	return fmt.Sprintf("no folds produced: train=%d + val=%d exceeds %d rows", e.TrainSize, e.ValSize, e.Rows)
}

// Kind returns the error classification
func (e *NoFoldsProducedError) Kind() ErrorType { return ErrorTypeNoFoldsProduced }

// KindOf returns the classification of a split error anywhere in err's chain,
// or an empty ErrorType when err did not originate in this package.
func KindOf(err error) ErrorType {
	var kinded interface{ Kind() ErrorType }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return ""
}

// CheckField returns a *FieldNotFoundError when tbl has no field named field.
// A missing field is reported ahead of any other parameter error.
func CheckField(tbl *domain.Table, field string) error {
	return requireField(tbl.Fields(), field, tbl.HasField(field))
}

func requireField(fields []string, field string, has bool) error {
	if has {
		return nil
	}
	return &FieldNotFoundError{Field: field, Available: fields}
}

func checkFraction(param string, v float64) error {
	if v > 0 && v < 1 {
		return nil
	}
	return &InvalidParameterError{Param: param, Value: v, Reason: "must be strictly between 0 and 1"}
}
