package split

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
		kind ErrorType
	}{
		{
			name: "field not found",
			err:  &FieldNotFoundError{Field: "Date", Available: []string{"Timestamp", "Production"}},
			want: "'Date' not found in columns: [Timestamp, Production]",
			kind: ErrorTypeFieldNotFound,
		},
		{
			name: "invalid parameter",
			err:  &InvalidParameterError{Param: "val_frac", Value: 1.5, Reason: "must be strictly between 0 and 1"},
			want: "invalid parameter val_frac=1.5: must be strictly between 0 and 1",
			kind: ErrorTypeInvalidParameter,
		},
		{
			name: "empty window",
			err:  &EmptyWindowError{Window: WindowValidation, Rows: 10, Fraction: 0.01},
			want: "validation window is empty: floor(10 * 0.01) = 0",
			kind: ErrorTypeEmptyWindow,
		},
		{
			name: "no folds",
			err:  &NoFoldsProducedError{Rows: 10, TrainSize: 9, ValSize: 2, NFolds: 3},
			want: "no folds produced: train=9 + val=2 exceeds 10 rows",
			kind: ErrorTypeNoFoldsProduced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestKindOfWrappedAndForeignErrors(t *testing.T) {
	wrapped := fmt.Errorf("prepare dataset: %w", &EmptyWindowError{Window: WindowTrain})
	assert.Equal(t, ErrorTypeEmptyWindow, KindOf(wrapped))

	assert.Equal(t, ErrorType(""), KindOf(errors.New("disk full")))
	assert.Equal(t, ErrorType(""), KindOf(nil))
}
