package payroll

import "github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"

// ComputePayslip turns employee facts, the configuration effective on the pay
// date and a payslip template into a payslip. It is pure and deterministic:
// identical inputs yield identical payslips, and any failure returns no payslip.
func ComputePayslip(facts payroll.EmployeeFacts, snapshot payroll.ConfigSnapshot, tpl payroll.PayslipTemplate) (payroll.Payslip, error) {
	if errs := ValidateFacts(facts); len(errs) > 0 {
		return payroll.Payslip{}, payroll.NewValidationError(errs)
	}
	if errs := ValidateSnapshot(snapshot); len(errs) > 0 {
		return payroll.Payslip{}, payroll.NewConfigurationError("invalid configuration snapshot", errs...)
	}

	allowances, err := AggregateAllowances(snapshot.Allowances, snapshot.AllowanceSubs, facts.Allowances)
	if err != nil {
		return payroll.Payslip{}, err
	}

	contributions := make(map[string]payroll.ContributionResult, len(snapshot.Contributions))
	for _, c := range snapshot.Contributions {
		contributions[c.Key] = CalculateContribution(c, facts.BasicSalary)
	}

	components, err := newComponentRegistry(snapshot)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if errs := ValidateTemplate(tpl, components); len(errs) > 0 {
		return payroll.Payslip{}, payroll.NewConfigurationError("invalid payslip template "+tpl.Key, errs...)
	}

	a := &assembly{
		facts:         facts,
		snapshot:      snapshot,
		components:    components,
		allowances:    allowances,
		contributions: contributions,
	}
	return a.walk(tpl)
}
