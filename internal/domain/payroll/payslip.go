package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxMethod enum
type TaxMethod string

const (
	TaxMethodProgressive          TaxMethod = "progressive"
	TaxMethodAverageEffectiveRate TaxMethod = "average_effective_rate"
)

// CalculationPeriod enum
type CalculationPeriod string

const (
	PeriodMonthly CalculationPeriod = "monthly"
	PeriodYearly  CalculationPeriod = "yearly"
)

// AllowanceInput - Allowance sub-item assigned to an employee for the period.
// Amount is supplied only for variable items.
type AllowanceInput struct {
	SubKey string           `json:"sub_key" yaml:"sub_key"`
	Amount *decimal.Decimal `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// EmployeeFacts - Per-employee inputs of one calculation
type EmployeeFacts struct {
	EmployeeID     string            `json:"employee_id" yaml:"employee_id"`
	PayDate        time.Time         `json:"pay_date" yaml:"pay_date"`
	BasicSalary    decimal.Decimal   `json:"basic_salary" yaml:"basic_salary"`
	DependentCount int               `json:"dependent_count" yaml:"dependent_count"`
	HasTaxID       bool              `json:"has_tax_id" yaml:"has_tax_id"`
	TaxpayerStatus string            `json:"taxpayer_status" yaml:"taxpayer_status"`
	TaxMethod      TaxMethod         `json:"tax_method" yaml:"tax_method"`
	Period         CalculationPeriod `json:"period" yaml:"period"`
	Allowances     []AllowanceInput  `json:"allowances,omitempty" yaml:"allowances,omitempty"`
}

// LineState enum
type LineState string

const (
	LineStatePending  LineState = "pending"
	LineStateResolved LineState = "resolved"
	LineStateRendered LineState = "rendered"
	LineStateSkipped  LineState = "skipped"
)

// PayslipLine - Computed line of a payslip
type PayslipLine struct {
	Order        int              `json:"order" yaml:"order"`
	ComponentKey string           `json:"component_key,omitempty" yaml:"component_key,omitempty"`
	Name         string           `json:"name" yaml:"name"`
	Balance      Balance          `json:"balance" yaml:"balance"`
	Amount       *decimal.Decimal `json:"amount,omitempty" yaml:"amount,omitempty"`
	Hidden       bool             `json:"hidden" yaml:"hidden"`
	State        LineState        `json:"state" yaml:"state"`
}

// ContributionResult - Audit record of one contribution calculation
type ContributionResult struct {
	Key         string                     `json:"key" yaml:"key"`
	Base        decimal.Decimal            `json:"base" yaml:"base"`
	ClampedBase decimal.Decimal            `json:"clamped_base" yaml:"clamped_base"`
	Subs        map[string]decimal.Decimal `json:"subs" yaml:"subs"`
}

// AllowanceSummary - Allowance totals grouped by tax treatment
type AllowanceSummary struct {
	ByTaxVariable   map[TaxVariable]decimal.Decimal `json:"by_tax_variable" yaml:"by_tax_variable"`
	ByAllowance     map[string]decimal.Decimal      `json:"by_allowance" yaml:"by_allowance"`
	BySub           map[string]decimal.Decimal      `json:"by_sub" yaml:"by_sub"`
	TaxableTotal    decimal.Decimal                 `json:"taxable_total" yaml:"taxable_total"`
	NonTaxableTotal decimal.Decimal                 `json:"non_taxable_total" yaml:"non_taxable_total"`
}

// TaxResult - Audit record of the income tax calculation
type TaxResult struct {
	Method                 TaxMethod         `json:"method" yaml:"method"`
	Period                 CalculationPeriod `json:"period,omitempty" yaml:"period,omitempty"`
	GrossIncome            decimal.Decimal   `json:"gross_income" yaml:"gross_income"`
	PTKP                   decimal.Decimal   `json:"ptkp" yaml:"ptkp"`
	DependentDeduction     decimal.Decimal   `json:"dependent_deduction" yaml:"dependent_deduction"`
	AllowanceCostDeduction decimal.Decimal   `json:"allowance_cost_deduction" yaml:"allowance_cost_deduction"`
	PreTaxDeductions       decimal.Decimal   `json:"pre_tax_deductions" yaml:"pre_tax_deductions"`
	TaxableIncome          decimal.Decimal   `json:"taxable_income" yaml:"taxable_income"`
	Rate                   *decimal.Decimal  `json:"rate,omitempty" yaml:"rate,omitempty"`
	SurchargeApplied       bool              `json:"surcharge_applied" yaml:"surcharge_applied"`
	Amount                 decimal.Decimal   `json:"amount" yaml:"amount"`
}

// Breakdown - Intermediate values of a payslip for audit and reporting
type Breakdown struct {
	GrossTaxableIncome decimal.Decimal      `json:"gross_taxable_income" yaml:"gross_taxable_income"`
	PreTaxDeductions   decimal.Decimal      `json:"pre_tax_deductions" yaml:"pre_tax_deductions"`
	Tax                *TaxResult           `json:"tax,omitempty" yaml:"tax,omitempty"`
	Contributions      []ContributionResult `json:"contributions" yaml:"contributions"`
	Allowances         AllowanceSummary     `json:"allowances" yaml:"allowances"`
}

// TaxAmount returns the computed income tax, zero when the template has no tax line.
func (b Breakdown) TaxAmount() decimal.Decimal {
	if b.Tax == nil {
		return decimal.Zero
	}
	return b.Tax.Amount
}

// Payslip - Final computed payslip
type Payslip struct {
	EmployeeID      string          `json:"employee_id" yaml:"employee_id"`
	PayDate         time.Time       `json:"pay_date" yaml:"pay_date"`
	TemplateKey     string          `json:"template_key" yaml:"template_key"`
	Lines           []PayslipLine   `json:"lines" yaml:"lines"`
	TotalEarnings   decimal.Decimal `json:"total_earnings" yaml:"total_earnings"`
	TotalDeductions decimal.Decimal `json:"total_deductions" yaml:"total_deductions"`
	NetTotal        decimal.Decimal `json:"net_total" yaml:"net_total"`
	Breakdown       Breakdown       `json:"breakdown" yaml:"breakdown"`
}

// VisibleLines returns the lines meant for rendering.
func (p Payslip) VisibleLines() []PayslipLine {
	lines := make([]PayslipLine, 0, len(p.Lines))
	for _, l := range p.Lines {
		if !l.Hidden {
			lines = append(lines, l)
		}
	}
	return lines
}
