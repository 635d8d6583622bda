package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, got.Equal(d(want)), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

var testPayDate = time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC)

func effective(key string) payroll.Effective {
	return payroll.Effective{Key: key, EffectiveFrom: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

// statutoryBrackets is the three-band table 0-60M @5%, 60M-250M @15%, above @25%.
func statutoryBrackets() []payroll.BracketRange {
	return []payroll.BracketRange{
		{Order: 1, RangeStart: 0, RangeEnd: 60_000_000, Rate: d("0.05")},
		{Order: 2, RangeStart: 60_000_001, RangeEnd: 250_000_000, Rate: d("0.15")},
		{Order: 3, RangeStart: 250_000_001, RangeEnd: payroll.Unbounded, Rate: d("0.25")},
	}
}

func testProgressiveTax() payroll.ProgressiveTaxConfig {
	return payroll.ProgressiveTaxConfig{
		Effective:                 effective("PPH21"),
		Name:                      "PPh 21",
		PTKPYearly:                d("54000000"),
		PTKPMonthly:               d("4500000"),
		MaxDependent:              3,
		DependentDeductionYearly:  d("4500000"),
		DependentDeductionMonthly: d("375000"),
		AllowanceCostRate:         d("0.05"),
		AllowanceCostCapYearly:    d("6000000"),
		AllowanceCostCapMonthly:   d("500000"),
		Rounding:                  d("1000"),
		NonTaxIDSurchargeRate:     d("0.2"),
		Brackets:                  statutoryBrackets(),
	}
}

func testAverageEffectiveRates() []payroll.AverageEffectiveRateConfig {
	return []payroll.AverageEffectiveRateConfig{
		{
			Effective:        effective("TER_A"),
			Name:             "TER A",
			StatusCategories: []string{"TK/0", "TK/1", "K/0"},
			Details: []payroll.AverageEffectiveRateDetail{
				{ParentKey: "TER_A", Order: 1, RangeStart: 0, RangeEnd: 5_400_000, RatePercentage: d("0")},
				{ParentKey: "TER_A", Order: 2, RangeStart: 5_400_001, RangeEnd: 10_000_000, RatePercentage: d("2")},
				{ParentKey: "TER_A", Order: 3, RangeStart: 10_000_001, RangeEnd: payroll.Unbounded, RatePercentage: d("5")},
			},
		},
		{
			Effective:        effective("TER_B"),
			Name:             "TER B",
			StatusCategories: []string{"TK/2", "K/1"},
			Details: []payroll.AverageEffectiveRateDetail{
				{ParentKey: "TER_B", Order: 1, RangeStart: 0, RangeEnd: 6_200_000, RatePercentage: d("0")},
				{ParentKey: "TER_B", Order: 2, RangeStart: 6_200_001, RangeEnd: payroll.Unbounded, RatePercentage: d("1.5")},
			},
		},
	}
}

func testHealthContribution() payroll.ContributionConfig {
	return payroll.ContributionConfig{
		Effective:         effective("BPJS_KES"),
		Name:              "BPJS Kesehatan",
		BaseOnCalculation: payroll.ContributionBaseBasicSalary,
		MinAmount:         d("0"),
		MaxAmount:         d("12000000"),
		Subs: []payroll.ContributionSubConfig{
			{Name: "employee", Percentage: d("1")},
			{Name: "employer", Percentage: d("4")},
		},
	}
}

func testSnapshot() payroll.ConfigSnapshot {
	return payroll.ConfigSnapshot{
		PayDate:               testPayDate,
		ProgressiveTax:        testProgressiveTax(),
		AverageEffectiveRates: testAverageEffectiveRates(),
		Contributions:         []payroll.ContributionConfig{testHealthContribution()},
		Allowances: []payroll.AllowanceConfig{
			{Effective: effective("TRANSPORT"), Name: "Transport", TaxVariable: payroll.TaxVariableTaxable},
			{Effective: effective("MEAL"), Name: "Meal", TaxVariable: payroll.TaxVariableNonTaxable},
		},
		AllowanceSubs: []payroll.AllowanceSub{
			{Effective: effective("TRANSPORT_FIXED"), AllowanceKey: "TRANSPORT", Name: "Transport", Category: "commute", AmountType: payroll.AmountTypeFixed, FixedAmount: d("500000")},
			{Effective: effective("MEAL_DAILY"), AllowanceKey: "MEAL", Name: "Daily meal", Category: "attendance", AmountType: payroll.AmountTypeVariable},
		},
	}
}

func testTemplate() payroll.PayslipTemplate {
	return payroll.PayslipTemplate{
		Effective: effective("STANDARD"),
		Name:      "Standard payslip",
		Details: []payroll.PayslipTemplateDetail{
			{Order: 1, Name: "Earnings", Balance: payroll.BalanceEarning},
			{Order: 2, ComponentKey: payroll.ComponentBasicSalary, Name: "Basic salary", Balance: payroll.BalanceEarning, Tax: true, IsProcess: true},
			{Order: 3, ComponentKey: "TRANSPORT", Name: "Transport allowance", Balance: payroll.BalanceEarning, Tax: true, IsProcess: true},
			{Order: 4, ComponentKey: "MEAL", Name: "Meal allowance", Balance: payroll.BalanceEarning, IsProcess: true},
			{Order: 5, ComponentKey: "BPJS_KES.employee", Name: "BPJS Kesehatan", Balance: payroll.BalanceDeduction, TaxDeduction: true, IsProcess: true},
			{Order: 6, ComponentKey: payroll.ComponentIncomeTax, Name: "PPh 21", Balance: payroll.BalanceDeduction, IsProcess: true},
			{Order: 7, ComponentKey: "BPJS_KES.employer", Name: "BPJS Kesehatan (employer)", Balance: payroll.BalanceDeduction, Hide: true, IsProcess: true},
		},
	}
}

func testFacts() payroll.EmployeeFacts {
	return payroll.EmployeeFacts{
		EmployeeID:     "EMP-001",
		PayDate:        testPayDate,
		BasicSalary:    d("10000000"),
		DependentCount: 1,
		HasTaxID:       true,
		TaxpayerStatus: "K/0",
		TaxMethod:      payroll.TaxMethodProgressive,
		Period:         payroll.PeriodMonthly,
		Allowances: []payroll.AllowanceInput{
			{SubKey: "TRANSPORT_FIXED"},
			{SubKey: "MEAL_DAILY", Amount: dp("300000")},
		},
	}
}
