package payroll

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateAllowances_Success(t *testing.T) {
	snap := testSnapshot()
	snap.Allowances = append(snap.Allowances, payroll.AllowanceConfig{
		Effective:   effective("TAX_BORNE"),
		Name:        "Tax borne by employer",
		TaxVariable: payroll.TaxVariableTaxAllowance,
	})
	snap.AllowanceSubs = append(snap.AllowanceSubs, payroll.AllowanceSub{
		Effective: effective("TAX_BORNE_MONTHLY"), AllowanceKey: "TAX_BORNE", AmountType: payroll.AmountTypeVariable,
	})

	summary, err := AggregateAllowances(snap.Allowances, snap.AllowanceSubs, []payroll.AllowanceInput{
		{SubKey: "TRANSPORT_FIXED"},
		{SubKey: "MEAL_DAILY", Amount: dp("300000")},
		{SubKey: "TAX_BORNE_MONTHLY", Amount: dp("125000")},
	})

	require.NoError(t, err)
	assertDecimal(t, "625000", summary.TaxableTotal)
	assertDecimal(t, "300000", summary.NonTaxableTotal)
	assertDecimal(t, "500000", summary.ByTaxVariable[payroll.TaxVariableTaxable])
	assertDecimal(t, "300000", summary.ByTaxVariable[payroll.TaxVariableNonTaxable])
	assertDecimal(t, "125000", summary.ByTaxVariable[payroll.TaxVariableTaxAllowance])
	assertDecimal(t, "500000", summary.ByAllowance["TRANSPORT"])
	assertDecimal(t, "300000", summary.BySub["MEAL_DAILY"])
}

func TestAggregateAllowances_NoInputs(t *testing.T) {
	snap := testSnapshot()

	summary, err := AggregateAllowances(snap.Allowances, snap.AllowanceSubs, nil)

	require.NoError(t, err)
	assert.NotNil(t, summary.ByAllowance)
	assert.True(t, summary.TaxableTotal.IsZero())
	assert.True(t, summary.NonTaxableTotal.IsZero())
}

func TestAggregateAllowances_UnknownParent(t *testing.T) {
	snap := testSnapshot()
	snap.AllowanceSubs = append(snap.AllowanceSubs, payroll.AllowanceSub{
		Effective: effective("ORPHAN"), AllowanceKey: "HOUSING", AmountType: payroll.AmountTypeFixed, FixedAmount: d("100"),
	})

	_, err := AggregateAllowances(snap.Allowances, snap.AllowanceSubs, []payroll.AllowanceInput{{SubKey: "ORPHAN"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrResolution)
	assert.Contains(t, err.Error(), "HOUSING")
}

func TestAggregateAllowances_UnknownSub(t *testing.T) {
	snap := testSnapshot()

	_, err := AggregateAllowances(snap.Allowances, snap.AllowanceSubs, []payroll.AllowanceInput{{SubKey: "BONUS"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrResolution)
}

func TestAggregateAllowances_InvalidAmounts(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []payroll.AllowanceInput
		wantField string
	}{
		{
			name:      "override on fixed item",
			inputs:    []payroll.AllowanceInput{{SubKey: "TRANSPORT_FIXED", Amount: dp("1")}},
			wantField: "allowances[0].amount",
		},
		{
			name:      "missing variable amount",
			inputs:    []payroll.AllowanceInput{{SubKey: "MEAL_DAILY"}},
			wantField: "allowances[0].amount",
		},
		{
			name:      "negative variable amount",
			inputs:    []payroll.AllowanceInput{{SubKey: "MEAL_DAILY", Amount: dp("-5")}},
			wantField: "allowances[0].amount",
		},
		{
			name:      "assigned twice",
			inputs:    []payroll.AllowanceInput{{SubKey: "TRANSPORT_FIXED"}, {SubKey: "TRANSPORT_FIXED"}},
			wantField: "allowances[1].sub_key",
		},
	}

	snap := testSnapshot()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AggregateAllowances(snap.Allowances, snap.AllowanceSubs, tt.inputs)

			require.Error(t, err)
			assert.ErrorIs(t, err, payroll.ErrValidation)
			var vErr *payroll.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Violations.ToMap(), tt.wantField)
		})
	}
}
