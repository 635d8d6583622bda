package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi decimal.Decimal) decimal.Decimal {
	if x.LessThan(lo) {
		return lo
	}
	if x.GreaterThan(hi) {
		return hi
	}
	return x
}

// CalculateContribution derives the base (basic salary or fixed amount), clamps it
// to [MinAmount, MaxAmount] and applies each share's percentage to the clamped base.
// Shares are not required to sum to 100: they usually belong to different parties.
func CalculateContribution(cfg payroll.ContributionConfig, basicSalary decimal.Decimal) payroll.ContributionResult {
	base := basicSalary
	if cfg.BaseOnCalculation == payroll.ContributionBaseFixedAmount {
		base = cfg.BaseOnFixedAmount
	}
	clamped := Clamp(base, cfg.MinAmount, cfg.MaxAmount)

	subs := make(map[string]decimal.Decimal, len(cfg.Subs))
	for _, sub := range cfg.Subs {
		subs[sub.Name] = roundDown(clamped.Mul(sub.Percentage).Div(hundred), cfg.Rounding)
	}

	return payroll.ContributionResult{
		Key:         cfg.Key,
		Base:        base,
		ClampedBase: clamped,
		Subs:        subs,
	}
}
