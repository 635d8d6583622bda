package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// ProgressiveTaxInput - Income facts for a progressive calculation
type ProgressiveTaxInput struct {
	GrossIncome      decimal.Decimal
	PreTaxDeductions decimal.Decimal
	DependentCount   int
	HasTaxID         bool
	Period           payroll.CalculationPeriod
}

// MarginalTax walks the brackets in ascending order and taxes only the part of
// income falling inside each one. Bracket i covers (previous range_end, range_end].
func MarginalTax(income decimal.Decimal, table []payroll.BracketRange) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}

	total := decimal.Zero
	brackets := sortedBrackets(table)
	for i, b := range brackets {
		lower := decimal.NewFromInt(b.RangeStart)
		if i > 0 {
			lower = decimal.NewFromInt(brackets[i-1].RangeEnd)
		}
		if income.LessThanOrEqual(lower) {
			break
		}

		upper := income
		if !b.IsUnbounded() {
			upper = decimal.Min(income, decimal.NewFromInt(b.RangeEnd))
		}
		if portion := upper.Sub(lower); portion.IsPositive() {
			total = total.Add(portion.Mul(b.Rate))
		}
	}

	return total
}

// CalculateProgressiveTax applies PTKP, dependent and allowance-cost deductions,
// taxes the remainder through the bracket table and rounds down to cfg.Rounding.
// Monthly figures are annualised for the bracket walk and the tax is brought back to a month.
func CalculateProgressiveTax(cfg payroll.ProgressiveTaxConfig, in ProgressiveTaxInput) (payroll.TaxResult, error) {
	if errs := ValidateBrackets("progressive_tax.brackets", cfg.Brackets, fractionRate); len(errs) > 0 {
		return payroll.TaxResult{}, payroll.NewConfigurationError("invalid progressive tax brackets", errs...)
	}

	ptkp, perDependent, costCap := cfg.PTKPYearly, cfg.DependentDeductionYearly, cfg.AllowanceCostCapYearly
	if in.Period == payroll.PeriodMonthly {
		ptkp, perDependent, costCap = cfg.PTKPMonthly, cfg.DependentDeductionMonthly, cfg.AllowanceCostCapMonthly
	}

	dependents := min(max(in.DependentCount, 0), cfg.MaxDependent)
	dependentDeduction := perDependent.Mul(decimal.NewFromInt(int64(dependents)))

	allowanceCost := decimal.Zero
	if in.GrossIncome.IsPositive() {
		allowanceCost = decimal.Min(in.GrossIncome.Mul(cfg.AllowanceCostRate), costCap)
	}

	taxable := in.GrossIncome.
		Sub(ptkp).
		Sub(dependentDeduction).
		Sub(allowanceCost).
		Sub(in.PreTaxDeductions)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	var tax decimal.Decimal
	if in.Period == payroll.PeriodMonthly {
		tax = MarginalTax(taxable.Mul(monthsPerYear), cfg.Brackets).Div(monthsPerYear)
	} else {
		tax = MarginalTax(taxable, cfg.Brackets)
	}

	surcharged := false
	if !in.HasTaxID && cfg.NonTaxIDSurchargeRate.IsPositive() {
		tax = tax.Mul(decimal.NewFromInt(1).Add(cfg.NonTaxIDSurchargeRate))
		surcharged = true
	}

	return payroll.TaxResult{
		Method:                 payroll.TaxMethodProgressive,
		Period:                 in.Period,
		GrossIncome:            in.GrossIncome,
		PTKP:                   ptkp,
		DependentDeduction:     dependentDeduction,
		AllowanceCostDeduction: allowanceCost,
		PreTaxDeductions:       in.PreTaxDeductions,
		TaxableIncome:          taxable,
		SurchargeApplied:       surcharged,
		Amount:                 roundDown(tax, cfg.Rounding),
	}, nil
}
