package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SelectAverageEffectiveRate picks the TER table covering a taxpayer status.
func SelectAverageEffectiveRate(configs []payroll.AverageEffectiveRateConfig, status string) (payroll.AverageEffectiveRateConfig, error) {
	var matches []payroll.AverageEffectiveRateConfig
	for _, c := range configs {
		if c.HasStatus(status) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return payroll.AverageEffectiveRateConfig{}, payroll.NewResolutionError("taxpayer status", status)
	default:
		return payroll.AverageEffectiveRateConfig{}, payroll.NewConfigurationError(
			"taxpayer status covered by more than one average effective rate table",
			validator.ValidationError{Field: "average_effective_rates", Message: fmt.Sprintf("status %q claimed by %d tables", status, len(matches))},
		)
	}
}

// CalculateAverageEffectiveRateTax applies one flat rate, chosen by status and
// gross monthly income, to the whole gross. No deductions and no marginal stacking.
func CalculateAverageEffectiveRateTax(configs []payroll.AverageEffectiveRateConfig, status string, grossMonthly decimal.Decimal) (payroll.TaxResult, error) {
	cfg, err := SelectAverageEffectiveRate(configs, status)
	if err != nil {
		return payroll.TaxResult{}, err
	}

	gross := grossMonthly
	if gross.IsNegative() {
		gross = decimal.Zero
	}

	bracket, err := ResolveBracket(gross.IntPart(), cfg.Brackets())
	if err != nil {
		return payroll.TaxResult{}, fmt.Errorf("average effective rate %s: %w", cfg.Key, err)
	}

	rate := bracket.Rate
	return payroll.TaxResult{
		Method:        payroll.TaxMethodAverageEffectiveRate,
		Period:        payroll.PeriodMonthly,
		GrossIncome:   gross,
		TaxableIncome: gross,
		Rate:          &rate,
		Amount:        roundDown(gross.Mul(rate).Div(hundred), decimal.Zero),
	}, nil
}
