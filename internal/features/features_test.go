package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyforecast/internal/shared/testutil"
	"energyforecast/internal/split"
	"energyforecast/pkg/contracts/domain"
)

func TestAddLagFeatures(t *testing.T) {
	tbl := testutil.ShuffledDailyTable(30)

	out, err := AddLagFeatures(tbl, testutil.TargetField, testutil.DateField, []int{1, 24})
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Production", "Site", "Production_lag_1", "Production_lag_24"}, out.Fields())
	assert.False(t, tbl.HasField("Production_lag_1"), "input not modified")

	lag1 := out.Column("Production_lag_1")
	lag24 := out.Column("Production_lag_24")

	assert.Nil(t, lag1[0])
	assert.Equal(t, 0.0, lag1[1])
	assert.Equal(t, 28.0, lag1[29])

	for i := 0; i < 24; i++ {
		assert.Nil(t, lag24[i], "row %d", i)
	}
	assert.Equal(t, 0.0, lag24[24])
	assert.Equal(t, 5.0, lag24[29])
}

func TestFeaturesIgnoreNonFiniteTargets(t *testing.T) {
	rows := testutil.DailyTable(6).Records()
	rows[2][testutil.TargetField] = math.NaN()
	rows[3][testutil.TargetField] = math.Inf(1)
	tbl := domain.NewTable([]string{testutil.DateField, testutil.TargetField, testutil.SiteField}, rows)

	out, err := AddLagFeatures(tbl, testutil.TargetField, testutil.DateField, []int{1})
	require.NoError(t, err)
	lag := out.Column("Production_lag_1")
	assert.Nil(t, lag[3])
	assert.Nil(t, lag[4])
	assert.Equal(t, 4.0, lag[5])

	out, err = AddRollingFeatures(tbl, testutil.TargetField, testutil.DateField, []int{2})
	require.NoError(t, err)
	roll := out.Column("Production_rollmean_2")
	for i := 3; i <= 5; i++ {
		assert.Nil(t, roll[i], "row %d", i)
	}
	assert.Equal(t, 0.5, roll[2])
}

func TestAddLagFeaturesSkipsMissingTargets(t *testing.T) {
	rows := testutil.DailyTable(4).Records()
	rows[1][testutil.TargetField] = nil
	rows[2][testutil.TargetField] = "n/a"
	tbl := domain.NewTable([]string{testutil.DateField, testutil.TargetField}, rows)

	out, err := AddLagFeatures(tbl, testutil.TargetField, testutil.DateField, []int{1})
	require.NoError(t, err)

	assert.Equal(t, []any{nil, 0.0, nil, nil}, out.Column("Production_lag_1"))
}

func TestAddRollingFeatures(t *testing.T) {
	tbl := testutil.DailyTable(10)

	out, err := AddRollingFeatures(tbl, testutil.TargetField, testutil.DateField, []int{3})
	require.NoError(t, err)

	roll := out.Column("Production_rollmean_3")
	for i := 0; i < 3; i++ {
		assert.Nil(t, roll[i], "row %d has fewer than 3 prior values", i)
	}
	// mean of 0,1,2 then 1,2,3 ...
	assert.InDelta(t, 1.0, roll[3], 1e-12)
	assert.InDelta(t, 2.0, roll[4], 1e-12)
	assert.InDelta(t, 7.0, roll[9], 1e-12)
}

func TestAddRollingFeaturesRequiresFullWindow(t *testing.T) {
	rows := testutil.DailyTable(8).Records()
	rows[2][testutil.TargetField] = nil
	tbl := domain.NewTable([]string{testutil.DateField, testutil.TargetField}, rows)

	out, err := AddRollingFeatures(tbl, testutil.TargetField, testutil.DateField, []int{2})
	require.NoError(t, err)

	roll := out.Column("Production_rollmean_2")
	assert.Nil(t, roll[0])
	assert.Nil(t, roll[1])
	assert.InDelta(t, 0.5, roll[2], 1e-12)
	// windows touching row 2 are incomplete
	assert.Nil(t, roll[3])
	assert.Nil(t, roll[4])
	assert.InDelta(t, 3.5, roll[5], 1e-12)
}

func TestFeatureValidation(t *testing.T) {
	tbl := testutil.DailyTable(5)

	tests := []struct {
		name      string
		run       func() error
		wantKind  split.ErrorType
		wantField string
	}{
		{
			name: "missing target",
			run: func() error {
				_, err := AddLagFeatures(tbl, "Load", testutil.DateField, []int{1})
				return err
			},
			wantKind:  split.ErrorTypeFieldNotFound,
			wantField: "Load",
		},
		{
			name: "missing time field",
			run: func() error {
				_, err := AddRollingFeatures(tbl, testutil.TargetField, "ts", []int{2})
				return err
			},
			wantKind:  split.ErrorTypeFieldNotFound,
			wantField: "ts",
		},
		{
			name: "zero lag",
			run: func() error {
				_, err := AddLagFeatures(tbl, testutil.TargetField, testutil.DateField, []int{1, 0})
				return err
			},
			wantKind: split.ErrorTypeInvalidParameter,
		},
		{
			name: "negative window",
			run: func() error {
				_, err := AddRollingFeatures(tbl, testutil.TargetField, testutil.DateField, []int{-2})
				return err
			},
			wantKind: split.ErrorTypeInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, split.KindOf(err))

			var fieldErr *split.FieldNotFoundError
			if errors.As(err, &fieldErr) {
				assert.Equal(t, tt.wantField, fieldErr.Field)
			}
		})
	}
}

func TestFieldNames(t *testing.T) {
	assert.Equal(t, "Production_lag_24", LagField("Production", 24))
	assert.Equal(t, "Production_rollmean_24", RollingField("Production", 24))
}
