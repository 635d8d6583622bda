package payroll

import (
	"fmt"
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ValidateSnapshot checks every configuration record of a snapshot and returns
// the full list of violations. An empty list means the snapshot is usable.
func ValidateSnapshot(snapshot payroll.ConfigSnapshot) validator.ValidationErrors {
	var errs validator.ValidationErrors
	errs = append(errs, validateProgressiveTax(snapshot.ProgressiveTax)...)
	errs = append(errs, validateAverageEffectiveRates(snapshot.AverageEffectiveRates)...)
	errs = append(errs, validateContributions(snapshot.Contributions)...)
	errs = append(errs, validateAllowances(snapshot.Allowances, snapshot.AllowanceSubs)...)
	return errs
}

func validateProgressiveTax(cfg payroll.ProgressiveTaxConfig) validator.ValidationErrors {
	var errs validator.ValidationErrors
	const f = "progressive_tax"

	nonNegative := map[string]decimal.Decimal{
		"ptkp_yearly":                 cfg.PTKPYearly,
		"ptkp_monthly":                cfg.PTKPMonthly,
		"dependent_deduction_yearly":  cfg.DependentDeductionYearly,
		"dependent_deduction_monthly": cfg.DependentDeductionMonthly,
		"allowance_cost_cap_yearly":   cfg.AllowanceCostCapYearly,
		"allowance_cost_cap_monthly":  cfg.AllowanceCostCapMonthly,
		"rounding":                    cfg.Rounding,
		"non_tax_id_surcharge_rate":   cfg.NonTaxIDSurchargeRate,
	}
	names := make([]string, 0, len(nonNegative))
	for name := range nonNegative {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !validator.IsNonNegative(nonNegative[name]) {
			errs.Add(f+"."+name, "must be non-negative")
		}
	}

	if cfg.MaxDependent < 0 {
		errs.Add(f+".max_dependent", "must be non-negative")
	}
	if !validator.IsFraction(cfg.AllowanceCostRate) {
		errs.Add(f+".allowance_cost_rate", "must be between 0 and 1")
	}
	errs = append(errs, ValidateBrackets(f+".brackets", cfg.Brackets, fractionRate)...)
	return errs
}

func validateAverageEffectiveRates(configs []payroll.AverageEffectiveRateConfig) validator.ValidationErrors {
	var errs validator.ValidationErrors
	claimedBy := make(map[string]string)
	for i, c := range configs {
		f := fmt.Sprintf("average_effective_rates[%d]", i)
		if len(c.StatusCategories) == 0 {
			errs.Add(f+".status_categories", "at least one status category is required")
		}
		for _, status := range c.StatusCategories {
			if owner, ok := claimedBy[status]; ok && owner != c.Key {
				errs.Add(f+".status_categories", fmt.Sprintf("status %q already covered by %s", status, owner))
				continue
			}
			claimedBy[status] = c.Key
		}
		for j, d := range c.Details {
			if d.ParentKey != "" && d.ParentKey != c.Key {
				errs.Add(fmt.Sprintf("%s.details[%d].parent_key", f, j), fmt.Sprintf("must reference %s", c.Key))
			}
		}
		errs = append(errs, ValidateBrackets(f+".details", c.Brackets(), percentageRate)...)
	}
	return errs
}

func validateContributions(configs []payroll.ContributionConfig) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, c := range configs {
		f := fmt.Sprintf("contributions[%d]", i)
		switch c.BaseOnCalculation {
		case payroll.ContributionBaseBasicSalary:
		case payroll.ContributionBaseFixedAmount:
			if !validator.IsNonNegative(c.BaseOnFixedAmount) {
				errs.Add(f+".base_on_fixed_amount", "must be non-negative")
			}
		default:
			errs.Add(f+".base_on_calculation", "must be one of: basic_salary, fixed_amount")
		}
		if !validator.IsNonNegative(c.MinAmount) {
			errs.Add(f+".min_amount", "must be non-negative")
		}
		if !validator.IsNonNegative(c.MaxAmount) {
			errs.Add(f+".max_amount", "must be non-negative")
		}
		if c.MinAmount.GreaterThan(c.MaxAmount) {
			errs.Add(f+".min_amount", "must not exceed max_amount")
		}
		if !validator.IsNonNegative(c.Rounding) {
			errs.Add(f+".rounding", "must be non-negative")
		}

		seen := make(map[string]bool, len(c.Subs))
		for j, sub := range c.Subs {
			sf := fmt.Sprintf("%s.subs[%d]", f, j)
			if sub.Name == "" {
				errs.Add(sf+".name", "is required")
			} else if seen[sub.Name] {
				errs.Add(sf+".name", fmt.Sprintf("duplicate share %s", sub.Name))
			}
			seen[sub.Name] = true
			if !validator.IsPercentage(sub.Percentage) {
				errs.Add(sf+".percentage", "must be between 0 and 100")
			}
		}
	}
	return errs
}

func validateAllowances(allowances []payroll.AllowanceConfig, subs []payroll.AllowanceSub) validator.ValidationErrors {
	var errs validator.ValidationErrors
	taxVariables := []string{
		string(payroll.TaxVariableTaxable),
		string(payroll.TaxVariableNonTaxable),
		string(payroll.TaxVariableTaxAllowance),
	}
	known := make(map[string]bool, len(allowances))
	for i, a := range allowances {
		known[a.Key] = true
		if !validator.IsInSlice(string(a.TaxVariable), taxVariables) {
			errs.Add(fmt.Sprintf("allowances[%d].tax_variable", i), "must be one of: taxable, non_taxable, tax_allowance")
		}
	}

	seen := make(map[string]bool, len(subs))
	for i, s := range subs {
		f := fmt.Sprintf("allowance_subs[%d]", i)
		if s.Key == "" {
			errs.Add(f+".key", "is required")
		} else if seen[s.Key] {
			errs.Add(f+".key", fmt.Sprintf("duplicate allowance item %s", s.Key))
		}
		seen[s.Key] = true
		if s.AllowanceKey == "" {
			errs.Add(f+".allowance_key", "is required")
		} else if !known[s.AllowanceKey] {
			errs.Add(f+".allowance_key", fmt.Sprintf("unknown allowance %s", s.AllowanceKey))
		}
		switch s.AmountType {
		case payroll.AmountTypeFixed:
			if !validator.IsNonNegative(s.FixedAmount) {
				errs.Add(f+".fixed_amount", "must be non-negative")
			}
		case payroll.AmountTypeVariable:
		default:
			errs.Add(f+".amount_type", "must be one of: fixed, variable")
		}
	}
	return errs
}

// ValidateFacts checks the per-employee inputs of one calculation.
func ValidateFacts(facts payroll.EmployeeFacts) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if facts.EmployeeID == "" {
		errs.Add("employee_id", "is required")
	}
	if facts.PayDate.IsZero() {
		errs.Add("pay_date", "is required")
	}
	if facts.BasicSalary.IsNegative() {
		errs.Add("basic_salary", "must be non-negative")
	}
	if facts.DependentCount < 0 {
		errs.Add("dependent_count", "must be non-negative")
	}

	switch facts.Period {
	case payroll.PeriodMonthly, payroll.PeriodYearly:
	default:
		errs.Add("period", "must be one of: monthly, yearly")
	}

	switch facts.TaxMethod {
	case payroll.TaxMethodProgressive:
	case payroll.TaxMethodAverageEffectiveRate:
		if facts.TaxpayerStatus == "" {
			errs.Add("taxpayer_status", "is required for the average effective rate method")
		}
		if facts.Period == payroll.PeriodYearly {
			errs.Add("period", "the average effective rate method applies to monthly income only")
		}
	default:
		errs.Add("tax_method", "must be one of: progressive, average_effective_rate")
	}
	return errs
}

// ValidateTemplate checks the structure of a template against the components
// it can bind to. Unknown keys are left to the walk, which reports them as
// resolution failures.
func ValidateTemplate(tpl payroll.PayslipTemplate, components componentRegistry) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if len(tpl.Details) == 0 {
		errs.Add("details", "template has no lines")
		return errs
	}

	lines := sortedLines(tpl.Details)
	taxOrder := -1
	taxLines := 0
	for _, l := range lines {
		if l.ComponentKey == payroll.ComponentIncomeTax {
			taxLines++
			if taxLines == 1 {
				taxOrder = l.Order
			}
		}
	}
	if taxLines > 1 {
		errs.Add("details", fmt.Sprintf("%d lines bound to %s, at most one allowed", taxLines, payroll.ComponentIncomeTax))
	}

	for i, l := range lines {
		f := fmt.Sprintf("details[order=%d]", l.Order)
		if i > 0 && l.Order == lines[i-1].Order {
			errs.Add(f+".order", "duplicate order")
		}
		switch l.Balance {
		case payroll.BalanceEarning, payroll.BalanceDeduction:
		default:
			errs.Add(f+".balance", "must be one of: earning, deduction")
		}
		if l.IsProcess && l.ComponentKey == "" {
			errs.Add(f+".component_key", "is required for process lines")
		}
		if l.Tax && l.TaxDeduction {
			errs.Add(f, "a line cannot both add to and reduce taxable income")
		}
		if (l.Tax || l.TaxDeduction) && !l.IsProcess {
			errs.Add(f, "informational lines cannot affect taxable income")
		}

		if l.ComponentKey == payroll.ComponentIncomeTax {
			if l.Tax || l.TaxDeduction {
				errs.Add(f, "the income tax line cannot feed taxable income")
			}
			continue
		}
		if taxLines > 0 && (l.Tax || l.TaxDeduction) && l.Order > taxOrder {
			errs.Add(f+".order", fmt.Sprintf("affects taxable income but comes after the income tax line (order %d)", taxOrder))
		}

		if c, ok := components[l.ComponentKey]; ok && c.allowance != nil {
			if taxable := c.allowance.TaxVariable.IsTaxable(); l.IsProcess && l.Tax != taxable {
				errs.Add(f+".tax", fmt.Sprintf("allowance %s is %s", c.allowance.Key, c.allowance.TaxVariable))
			}
		}
	}
	return errs
}

func sortedLines(details []payroll.PayslipTemplateDetail) []payroll.PayslipTemplateDetail {
	lines := make([]payroll.PayslipTemplateDetail, len(details))
	copy(lines, details)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Order < lines[j].Order
	})
	return lines
}
