package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type componentKind int

const (
	componentBasicSalary componentKind = iota
	componentIncomeTax
	componentAllowance
	componentAllowanceSub
	componentContribution
)

// component is what a template line's key resolves to.
type component struct {
	kind            componentKind
	allowance       *payroll.AllowanceConfig
	contributionKey string
	shareName       string
}

type componentRegistry map[string]component

// newComponentRegistry indexes every key a template line may bind to.
// A key claimed twice makes lookups ambiguous and is a configuration error.
func newComponentRegistry(snapshot payroll.ConfigSnapshot) (componentRegistry, error) {
	reg := componentRegistry{
		payroll.ComponentBasicSalary: {kind: componentBasicSalary},
		payroll.ComponentIncomeTax:   {kind: componentIncomeTax},
	}
	var errs validator.ValidationErrors
	register := func(key string, c component) {
		if _, ok := reg[key]; ok {
			errs.Add("component_key", fmt.Sprintf("%s is claimed by more than one component", key))
			return
		}
		reg[key] = c
	}

	allowances := make(map[string]*payroll.AllowanceConfig, len(snapshot.Allowances))
	for i := range snapshot.Allowances {
		a := &snapshot.Allowances[i]
		allowances[a.Key] = a
		register(a.Key, component{kind: componentAllowance, allowance: a})
	}
	for _, s := range snapshot.AllowanceSubs {
		parent, ok := allowances[s.AllowanceKey]
		if !ok {
			continue
		}
		register(s.Key, component{kind: componentAllowanceSub, allowance: parent})
	}
	for _, c := range snapshot.Contributions {
		for _, sub := range c.Subs {
			register(c.SubKey(sub.Name), component{kind: componentContribution, contributionKey: c.Key, shareName: sub.Name})
		}
	}

	if len(errs) > 0 {
		return nil, payroll.NewConfigurationError("ambiguous component keys", errs...)
	}
	return reg, nil
}

// assembly carries the computed inputs a template walk draws from.
type assembly struct {
	facts         payroll.EmployeeFacts
	snapshot      payroll.ConfigSnapshot
	components    componentRegistry
	allowances    payroll.AllowanceSummary
	contributions map[string]payroll.ContributionResult
}

// walk resolves template lines in order. Lines flagged tax or tax_deduction
// accumulate into the taxable base consumed by the income tax line.
// Any unresolved key aborts the whole walk.
func (a *assembly) walk(tpl payroll.PayslipTemplate) (payroll.Payslip, error) {
	lines := sortedLines(tpl.Details)
	out := make([]payroll.PayslipLine, 0, len(lines))
	grossTaxable := decimal.Zero
	preTax := decimal.Zero
	earnings := decimal.Zero
	deductions := decimal.Zero
	var taxResult *payroll.TaxResult

	for _, l := range lines {
		line := payroll.PayslipLine{
			Order:        l.Order,
			ComponentKey: l.ComponentKey,
			Name:         l.Name,
			Balance:      l.Balance,
			Hidden:       l.Hide,
			State:        payroll.LineStatePending,
		}

		var c component
		if l.ComponentKey != "" {
			var ok bool
			if c, ok = a.components[l.ComponentKey]; !ok {
				return payroll.Payslip{}, payroll.NewResolutionError("component key", l.ComponentKey)
			}
		}

		if !l.IsProcess {
			line.State = payroll.LineStateRendered
			out = append(out, line)
			continue
		}

		var amount decimal.Decimal
		if c.kind == componentIncomeTax {
			res, err := a.tax(grossTaxable, preTax)
			if err != nil {
				return payroll.Payslip{}, err
			}
			taxResult = &res
			amount = res.Amount
		} else {
			amount = a.amount(c, l.ComponentKey)
		}
		line.Amount = &amount
		line.State = payroll.LineStateResolved

		signed := amount
		if l.Balance == payroll.BalanceDeduction {
			signed = amount.Neg()
			deductions = deductions.Add(amount)
		} else {
			earnings = earnings.Add(amount)
		}
		switch {
		case l.Tax:
			grossTaxable = grossTaxable.Add(signed)
		case l.TaxDeduction:
			preTax = preTax.Add(amount)
		}

		if l.Hide {
			line.State = payroll.LineStateSkipped
		} else {
			line.State = payroll.LineStateRendered
		}
		out = append(out, line)
	}

	contributions := make([]payroll.ContributionResult, 0, len(a.snapshot.Contributions))
	for _, c := range a.snapshot.Contributions {
		contributions = append(contributions, a.contributions[c.Key])
	}

	return payroll.Payslip{
		EmployeeID:      a.facts.EmployeeID,
		PayDate:         a.facts.PayDate,
		TemplateKey:     tpl.Key,
		Lines:           out,
		TotalEarnings:   earnings,
		TotalDeductions: deductions,
		NetTotal:        earnings.Sub(deductions),
		Breakdown: payroll.Breakdown{
			GrossTaxableIncome: grossTaxable,
			PreTaxDeductions:   preTax,
			Tax:                taxResult,
			Contributions:      contributions,
			Allowances:         a.allowances,
		},
	}, nil
}

func (a *assembly) amount(c component, key string) decimal.Decimal {
	switch c.kind {
	case componentBasicSalary:
		return a.facts.BasicSalary
	case componentAllowance:
		return a.allowances.ByAllowance[key]
	case componentAllowanceSub:
		return a.allowances.BySub[key]
	case componentContribution:
		return a.contributions[c.contributionKey].Subs[c.shareName]
	default:
		return decimal.Zero
	}
}

// tax runs the method the caller selected for this employee.
func (a *assembly) tax(grossTaxable, preTax decimal.Decimal) (payroll.TaxResult, error) {
	switch a.facts.TaxMethod {
	case payroll.TaxMethodAverageEffectiveRate:
		res, err := CalculateAverageEffectiveRateTax(a.snapshot.AverageEffectiveRates, a.facts.TaxpayerStatus, grossTaxable)
		if err != nil {
			return payroll.TaxResult{}, err
		}
		res.PreTaxDeductions = preTax
		return res, nil
	default:
		res, err := CalculateProgressiveTax(a.snapshot.ProgressiveTax, ProgressiveTaxInput{
			GrossIncome:      grossTaxable,
			PreTaxDeductions: preTax,
			DependentCount:   a.facts.DependentCount,
			HasTaxID:         a.facts.HasTaxID,
			Period:           a.facts.Period,
		})
		if err != nil {
			return payroll.TaxResult{}, fmt.Errorf("progressive tax %s: %w", a.snapshot.ProgressiveTax.Key, err)
		}
		return res, nil
	}
}
