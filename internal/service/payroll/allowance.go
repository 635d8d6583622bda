package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// AggregateAllowances resolves the employee's allowance items against the
// configuration and sums them per allowance, per item and per tax treatment.
// Variable amounts are resolved upstream and arrive as plain numbers.
func AggregateAllowances(allowances []payroll.AllowanceConfig, subs []payroll.AllowanceSub, inputs []payroll.AllowanceInput) (payroll.AllowanceSummary, error) {
	allowanceByKey := make(map[string]payroll.AllowanceConfig, len(allowances))
	for _, a := range allowances {
		allowanceByKey[a.Key] = a
	}
	subByKey := make(map[string]payroll.AllowanceSub, len(subs))
	for _, s := range subs {
		subByKey[s.Key] = s
	}

	summary := payroll.AllowanceSummary{
		ByTaxVariable:   make(map[payroll.TaxVariable]decimal.Decimal),
		ByAllowance:     make(map[string]decimal.Decimal),
		BySub:           make(map[string]decimal.Decimal),
		TaxableTotal:    decimal.Zero,
		NonTaxableTotal: decimal.Zero,
	}

	var errs validator.ValidationErrors
	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("allowances[%d]", i)

		sub, ok := subByKey[in.SubKey]
		if !ok {
			return payroll.AllowanceSummary{}, payroll.NewResolutionError("allowance item", in.SubKey)
		}
		parent, ok := allowanceByKey[sub.AllowanceKey]
		if !ok {
			return payroll.AllowanceSummary{}, payroll.NewResolutionError("allowance", sub.AllowanceKey)
		}
		if seen[in.SubKey] {
			errs.Add(field+".sub_key", fmt.Sprintf("%s assigned more than once", in.SubKey))
			continue
		}
		seen[in.SubKey] = true

		var amount decimal.Decimal
		switch sub.AmountType {
		case payroll.AmountTypeFixed:
			if in.Amount != nil {
				errs.Add(field+".amount", "fixed allowance items take the configured amount")
				continue
			}
			amount = sub.FixedAmount
		default:
			if in.Amount == nil {
				errs.Add(field+".amount", "is required for variable allowance items")
				continue
			}
			if in.Amount.IsNegative() {
				errs.Add(field+".amount", "must be non-negative")
				continue
			}
			amount = *in.Amount
		}

		summary.BySub[sub.Key] = summary.BySub[sub.Key].Add(amount)
		summary.ByAllowance[parent.Key] = summary.ByAllowance[parent.Key].Add(amount)
		summary.ByTaxVariable[parent.TaxVariable] = summary.ByTaxVariable[parent.TaxVariable].Add(amount)
		if parent.TaxVariable.IsTaxable() {
			summary.TaxableTotal = summary.TaxableTotal.Add(amount)
		} else {
			summary.NonTaxableTotal = summary.NonTaxableTotal.Add(amount)
		}
	}

	if len(errs) > 0 {
		return payroll.AllowanceSummary{}, payroll.NewValidationError(errs)
	}
	return summary, nil
}
