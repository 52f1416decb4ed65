// Package evaluate scores forecasts against observed values.
package evaluate

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"energyforecast/internal/split"
	"energyforecast/pkg/contracts/domain"
)

// ErrEmptyInput is returned when there is nothing to score
var ErrEmptyInput = errors.New("no values to score")

// RMSE returns the root mean squared error of yPred against yTrue.
func RMSE(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("length mismatch: %d observed, %d predicted", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, ErrEmptyInput
	}

	residuals := make([]float64, len(yTrue))
	floats.SubTo(residuals, yTrue, yPred)
	return math.Sqrt(floats.Dot(residuals, residuals) / float64(len(residuals))), nil
}

// Score is an RMSE computed over the rows of a table where both values were numeric.
type Score struct {
	RMSE    float64 `json:"rmse"`
	Rows    int     `json:"rows"`
	Skipped int     `json:"skipped"`
}

// ColumnRMSE scores predField against truthField row by row. Rows where either
// value is missing or non-numeric are skipped and counted.
func ColumnRMSE(tbl *domain.Table, truthField, predField string) (Score, error) {
	for _, f := range []string{truthField, predField} {
		if !tbl.HasField(f) {
			return Score{}, &split.FieldNotFoundError{Field: f, Available: tbl.Fields()}
		}
	}

	truth, truthOK := tbl.Floats(truthField)
	pred, predOK := tbl.Floats(predField)

	yTrue := make([]float64, 0, len(truth))
	yPred := make([]float64, 0, len(pred))
	for i := range truth {
		if truthOK[i] && predOK[i] {
			yTrue = append(yTrue, truth[i])
			yPred = append(yPred, pred[i])
		}
	}

	score := Score{Rows: len(yTrue), Skipped: len(truth) - len(yTrue)}
	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		return score, fmt.Errorf("score %s against %s: %w", predField, truthField, err)
	}
	score.RMSE = rmse
	return score, nil
}
