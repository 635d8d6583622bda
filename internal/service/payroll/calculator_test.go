package payroll

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineByKey(t *testing.T, slip payroll.Payslip, key string) payroll.PayslipLine {
	t.Helper()
	for _, l := range slip.Lines {
		if l.ComponentKey == key {
			return l
		}
	}
	t.Fatalf("no line for %s", key)
	return payroll.PayslipLine{}
}

func TestComputePayslip_Progressive(t *testing.T) {
	slip, err := ComputePayslip(testFacts(), testSnapshot(), testTemplate())

	require.NoError(t, err)
	assert.Equal(t, "EMP-001", slip.EmployeeID)
	assert.Equal(t, "STANDARD", slip.TemplateKey)
	require.Len(t, slip.Lines, 7)

	assertDecimal(t, "10000000", *lineByKey(t, slip, payroll.ComponentBasicSalary).Amount)
	assertDecimal(t, "500000", *lineByKey(t, slip, "TRANSPORT").Amount)
	assertDecimal(t, "300000", *lineByKey(t, slip, "MEAL").Amount)
	assertDecimal(t, "100000", *lineByKey(t, slip, "BPJS_KES.employee").Amount)
	assertDecimal(t, "253000", *lineByKey(t, slip, payroll.ComponentIncomeTax).Amount)
	assertDecimal(t, "400000", *lineByKey(t, slip, "BPJS_KES.employer").Amount)

	assertDecimal(t, "10800000", slip.TotalEarnings)
	assertDecimal(t, "753000", slip.TotalDeductions)
	assertDecimal(t, "10047000", slip.NetTotal)

	assertDecimal(t, "10500000", slip.Breakdown.GrossTaxableIncome)
	assertDecimal(t, "100000", slip.Breakdown.PreTaxDeductions)
	require.NotNil(t, slip.Breakdown.Tax)
	assertDecimal(t, "5025000", slip.Breakdown.Tax.TaxableIncome)
	assertDecimal(t, "253000", slip.Breakdown.TaxAmount())
	require.Len(t, slip.Breakdown.Contributions, 1)
	assertDecimal(t, "10000000", slip.Breakdown.Contributions[0].ClampedBase)
	assertDecimal(t, "500000", slip.Breakdown.Allowances.TaxableTotal)
}

func TestComputePayslip_AverageEffectiveRate(t *testing.T) {
	facts := testFacts()
	facts.TaxMethod = payroll.TaxMethodAverageEffectiveRate

	slip, err := ComputePayslip(facts, testSnapshot(), testTemplate())

	require.NoError(t, err)
	// TER A, 10,500,000 falls in the 5% band
	assertDecimal(t, "525000", *lineByKey(t, slip, payroll.ComponentIncomeTax).Amount)
	require.NotNil(t, slip.Breakdown.Tax.Rate)
	assertDecimal(t, "5", *slip.Breakdown.Tax.Rate)
	assertDecimal(t, "100000", slip.Breakdown.Tax.PreTaxDeductions)
}

func TestComputePayslip_NetTotalInvariant(t *testing.T) {
	salaries := []string{"0", "3000000", "10000000", "25000000", "120000000"}
	for _, salary := range salaries {
		for _, method := range []payroll.TaxMethod{payroll.TaxMethodProgressive, payroll.TaxMethodAverageEffectiveRate} {
			facts := testFacts()
			facts.BasicSalary = d(salary)
			facts.TaxMethod = method

			slip, err := ComputePayslip(facts, testSnapshot(), testTemplate())
			require.NoError(t, err)

			earnings, deductions := decimal.Zero, decimal.Zero
			for _, l := range slip.Lines {
				if l.Amount == nil {
					continue
				}
				if l.Balance == payroll.BalanceDeduction {
					deductions = deductions.Add(*l.Amount)
				} else {
					earnings = earnings.Add(*l.Amount)
				}
			}
			assertDecimal(t, earnings.Sub(deductions).String(), slip.NetTotal, "salary %s method %s", salary, method)
		}
	}
}

func TestComputePayslip_LineStates(t *testing.T) {
	slip, err := ComputePayslip(testFacts(), testSnapshot(), testTemplate())
	require.NoError(t, err)

	header := slip.Lines[0]
	assert.Equal(t, payroll.LineStateRendered, header.State)
	assert.Nil(t, header.Amount)

	hidden := lineByKey(t, slip, "BPJS_KES.employer")
	assert.Equal(t, payroll.LineStateSkipped, hidden.State)
	assert.True(t, hidden.Hidden)
	require.NotNil(t, hidden.Amount)

	assert.Len(t, slip.VisibleLines(), 6)
	for _, l := range slip.Lines {
		assert.NotEqual(t, payroll.LineStatePending, l.State)
		assert.NotEqual(t, payroll.LineStateResolved, l.State)
	}
}

func TestComputePayslip_LinesFollowOrder(t *testing.T) {
	tpl := testTemplate()
	tpl.Details[0], tpl.Details[6] = tpl.Details[6], tpl.Details[0]

	slip, err := ComputePayslip(testFacts(), testSnapshot(), tpl)

	require.NoError(t, err)
	for i := 1; i < len(slip.Lines); i++ {
		assert.Less(t, slip.Lines[i-1].Order, slip.Lines[i].Order)
	}
}

func TestComputePayslip_Deterministic(t *testing.T) {
	first, err := ComputePayslip(testFacts(), testSnapshot(), testTemplate())
	require.NoError(t, err)
	second, err := ComputePayslip(testFacts(), testSnapshot(), testTemplate())
	require.NoError(t, err)

	assertDecimal(t, first.NetTotal.String(), second.NetTotal)
	require.Len(t, second.Lines, len(first.Lines))
	for i := range first.Lines {
		assert.Equal(t, first.Lines[i].State, second.Lines[i].State)
		if first.Lines[i].Amount != nil {
			assertDecimal(t, first.Lines[i].Amount.String(), *second.Lines[i].Amount)
		}
	}
}

func TestComputePayslip_UnresolvedKey(t *testing.T) {
	tpl := testTemplate()
	tpl.Details = append(tpl.Details, payroll.PayslipTemplateDetail{
		Order: 8, ComponentKey: "LOAN_REPAYMENT", Name: "Loan", Balance: payroll.BalanceDeduction, IsProcess: true,
	})

	slip, err := ComputePayslip(testFacts(), testSnapshot(), tpl)

	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrResolution)
	var resErr *payroll.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "LOAN_REPAYMENT", resErr.Key)
	assert.Empty(t, slip.Lines)
	assert.True(t, slip.NetTotal.IsZero())
}

func TestComputePayslip_InformationalLineMustResolve(t *testing.T) {
	tpl := testTemplate()
	tpl.Details[0].ComponentKey = "SECTION_UNKNOWN"

	_, err := ComputePayslip(testFacts(), testSnapshot(), tpl)

	assert.ErrorIs(t, err, payroll.ErrResolution)
}

func TestComputePayslip_TemplateViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tpl *payroll.PayslipTemplate)
	}{
		{
			name: "taxable line after the tax line",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details[2].Order = 9
			},
		},
		{
			name: "pre-tax deduction after the tax line",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details[4].Order = 9
			},
		},
		{
			name: "duplicate order",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details[3].Order = 3
			},
		},
		{
			name: "two tax lines",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details = append(tpl.Details, payroll.PayslipTemplateDetail{
					Order: 10, ComponentKey: payroll.ComponentIncomeTax, Balance: payroll.BalanceDeduction, IsProcess: true,
				})
			},
		},
		{
			name: "process line without key",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details[0].IsProcess = true
			},
		},
		{
			name: "tax flag disagrees with allowance treatment",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details[3].Tax = true
			},
		},
		{
			name: "tax and tax deduction on one line",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details[1].TaxDeduction = true
			},
		},
		{
			name: "tax line feeding itself",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details[5].Tax = true
			},
		},
		{
			name: "empty template",
			mutate: func(tpl *payroll.PayslipTemplate) {
				tpl.Details = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := testTemplate()
			tt.mutate(&tpl)

			slip, err := ComputePayslip(testFacts(), testSnapshot(), tpl)

			require.Error(t, err)
			assert.ErrorIs(t, err, payroll.ErrConfiguration)
			assert.Empty(t, slip.Lines)
		})
	}
}

func TestComputePayslip_InvalidFacts(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(f *payroll.EmployeeFacts)
		wantField string
	}{
		{"negative salary", func(f *payroll.EmployeeFacts) { f.BasicSalary = d("-1") }, "basic_salary"},
		{"negative dependents", func(f *payroll.EmployeeFacts) { f.DependentCount = -1 }, "dependent_count"},
		{"unknown method", func(f *payroll.EmployeeFacts) { f.TaxMethod = "flat" }, "tax_method"},
		{"missing status for TER", func(f *payroll.EmployeeFacts) {
			f.TaxMethod = payroll.TaxMethodAverageEffectiveRate
			f.TaxpayerStatus = ""
		}, "taxpayer_status"},
		{"yearly TER", func(f *payroll.EmployeeFacts) {
			f.TaxMethod = payroll.TaxMethodAverageEffectiveRate
			f.Period = payroll.PeriodYearly
		}, "period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := testFacts()
			tt.mutate(&facts)

			_, err := ComputePayslip(facts, testSnapshot(), testTemplate())

			var vErr *payroll.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Violations.ToMap(), tt.wantField)
		})
	}
}

func TestComputePayslip_AmbiguousComponentKey(t *testing.T) {
	snap := testSnapshot()
	snap.Allowances = append(snap.Allowances, payroll.AllowanceConfig{
		Effective: effective("BPJS_KES.employee"), Name: "Clash", TaxVariable: payroll.TaxVariableNonTaxable,
	})

	_, err := ComputePayslip(testFacts(), snap, testTemplate())

	assert.ErrorIs(t, err, payroll.ErrConfiguration)
}

func TestComputePayslip_InvalidSnapshot(t *testing.T) {
	snap := testSnapshot()
	snap.Contributions[0].MinAmount = d("15000000")

	_, err := ComputePayslip(testFacts(), snap, testTemplate())

	var cfgErr *payroll.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Violations.ToMap(), "contributions[0].min_amount")
}

func TestComputePayslip_UnassignedAllowanceIsZero(t *testing.T) {
	facts := testFacts()
	facts.Allowances = nil

	slip, err := ComputePayslip(facts, testSnapshot(), testTemplate())

	require.NoError(t, err)
	assert.True(t, lineByKey(t, slip, "TRANSPORT").Amount.IsZero())
	assertDecimal(t, "10000000", slip.Breakdown.GrossTaxableIncome)
}

func TestComputePayslip_NoTaxLine(t *testing.T) {
	tpl := testTemplate()
	tpl.Details = tpl.Details[:5]

	slip, err := ComputePayslip(testFacts(), testSnapshot(), tpl)

	require.NoError(t, err)
	assert.Nil(t, slip.Breakdown.Tax)
	assert.True(t, slip.Breakdown.TaxAmount().IsZero())
}
