package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unbounded marks the last bracket of a table as open-ended above.
const Unbounded int64 = 0

// Reserved component keys a template line can bind to.
const (
	ComponentBasicSalary = "BASIC_SALARY"
	ComponentIncomeTax   = "INCOME_TAX"
)

// Effective - Versioning header shared by every configuration record
type Effective struct {
	Key           string     `json:"key" yaml:"key"`
	EffectiveFrom time.Time  `json:"effective_from" yaml:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
}

// EffectiveOn reports whether the version applies on the given date.
func (e Effective) EffectiveOn(date time.Time) bool {
	d := truncateDay(date)
	if d.Before(truncateDay(e.EffectiveFrom)) {
		return false
	}
	return e.EffectiveTo == nil || !d.After(truncateDay(*e.EffectiveTo))
}

func (e Effective) version() Effective { return e }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BracketRange - One row of a rate table
type BracketRange struct {
	Order      int             `json:"order" yaml:"order"`
	RangeStart int64           `json:"range_start" yaml:"range_start"`
	RangeEnd   int64           `json:"range_end" yaml:"range_end"`
	Rate       decimal.Decimal `json:"rate" yaml:"rate"`
}

// IsUnbounded reports whether the range has no upper limit.
func (b BracketRange) IsUnbounded() bool {
	return b.RangeEnd == Unbounded
}

// Contains reports whether amount falls inside the range.
func (b BracketRange) Contains(amount int64) bool {
	if amount < b.RangeStart {
		return false
	}
	return b.IsUnbounded() || amount <= b.RangeEnd
}

// ProgressiveTaxConfig - Progressive income tax rules (PPh 21 style)
type ProgressiveTaxConfig struct {
	Effective                 `yaml:",inline"`
	Name                      string          `json:"name" yaml:"name"`
	Description               *string         `json:"description,omitempty" yaml:"description,omitempty"`
	PTKPYearly                decimal.Decimal `json:"ptkp_yearly" yaml:"ptkp_yearly"`
	PTKPMonthly               decimal.Decimal `json:"ptkp_monthly" yaml:"ptkp_monthly"`
	MaxDependent              int             `json:"max_dependent" yaml:"max_dependent"`
	DependentDeductionYearly  decimal.Decimal `json:"dependent_deduction_yearly" yaml:"dependent_deduction_yearly"`
	DependentDeductionMonthly decimal.Decimal `json:"dependent_deduction_monthly" yaml:"dependent_deduction_monthly"`
	AllowanceCostRate         decimal.Decimal `json:"allowance_cost_rate" yaml:"allowance_cost_rate"`
	AllowanceCostCapYearly    decimal.Decimal `json:"allowance_cost_cap_yearly" yaml:"allowance_cost_cap_yearly"`
	AllowanceCostCapMonthly   decimal.Decimal `json:"allowance_cost_cap_monthly" yaml:"allowance_cost_cap_monthly"`
	Rounding                  decimal.Decimal `json:"rounding" yaml:"rounding"`
	NonTaxIDSurchargeRate     decimal.Decimal `json:"non_tax_id_surcharge_rate" yaml:"non_tax_id_surcharge_rate"`
	Brackets                  []BracketRange  `json:"brackets" yaml:"brackets"`
}

// AverageEffectiveRateDetail - One income range of a TER table
type AverageEffectiveRateDetail struct {
	ParentKey      string          `json:"parent_key" yaml:"parent_key"`
	Order          int             `json:"order" yaml:"order"`
	RangeStart     int64           `json:"range_start" yaml:"range_start"`
	RangeEnd       int64           `json:"range_end" yaml:"range_end"`
	RatePercentage decimal.Decimal `json:"rate_percentage" yaml:"rate_percentage"`
}

// AverageEffectiveRateConfig - Flat withholding table for a set of taxpayer statuses
type AverageEffectiveRateConfig struct {
	Effective        `yaml:",inline"`
	Name             string                       `json:"name" yaml:"name"`
	StatusCategories []string                     `json:"status_categories" yaml:"status_categories"`
	Description      *string                      `json:"description,omitempty" yaml:"description,omitempty"`
	Details          []AverageEffectiveRateDetail `json:"details" yaml:"details"`
}

// Brackets exposes the TER details as a bracket table. Rates stay in percent.
func (c AverageEffectiveRateConfig) Brackets() []BracketRange {
	table := make([]BracketRange, 0, len(c.Details))
	for _, d := range c.Details {
		table = append(table, BracketRange{
			Order:      d.Order,
			RangeStart: d.RangeStart,
			RangeEnd:   d.RangeEnd,
			Rate:       d.RatePercentage,
		})
	}
	return table
}

// HasStatus reports whether the table applies to the taxpayer status.
func (c AverageEffectiveRateConfig) HasStatus(status string) bool {
	for _, s := range c.StatusCategories {
		if s == status {
			return true
		}
	}
	return false
}

// ContributionBase enum
type ContributionBase string

const (
	ContributionBaseBasicSalary ContributionBase = "basic_salary"
	ContributionBaseFixedAmount ContributionBase = "fixed_amount"
)

// ContributionSubConfig - Named share of a contribution
type ContributionSubConfig struct {
	Name       string          `json:"name" yaml:"name"`
	Percentage decimal.Decimal `json:"percentage" yaml:"percentage"`
}

// ContributionConfig - Social insurance (BPJS) contribution rules
type ContributionConfig struct {
	Effective         `yaml:",inline"`
	Name              string                  `json:"name" yaml:"name"`
	BaseOnCalculation ContributionBase        `json:"base_on_calculation" yaml:"base_on_calculation"`
	BaseOnFixedAmount decimal.Decimal         `json:"base_on_fixed_amount" yaml:"base_on_fixed_amount"`
	MinAmount         decimal.Decimal         `json:"min_amount" yaml:"min_amount"`
	MaxAmount         decimal.Decimal         `json:"max_amount" yaml:"max_amount"`
	Rounding          decimal.Decimal         `json:"rounding" yaml:"rounding"`
	Description       *string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Subs              []ContributionSubConfig `json:"subs" yaml:"subs"`
}

// SubKey returns the component key a template line uses for a contribution share.
func (c ContributionConfig) SubKey(subName string) string {
	return c.Key + "." + subName
}

// TaxVariable enum
type TaxVariable string

const (
	TaxVariableTaxable      TaxVariable = "taxable"
	TaxVariableNonTaxable   TaxVariable = "non_taxable"
	TaxVariableTaxAllowance TaxVariable = "tax_allowance"
)

// IsTaxable reports whether amounts under this treatment add to taxable income.
func (v TaxVariable) IsTaxable() bool {
	return v == TaxVariableTaxable || v == TaxVariableTaxAllowance
}

// AllowanceConfig - Allowance group and its tax treatment
type AllowanceConfig struct {
	Effective   `yaml:",inline"`
	Name        string      `json:"name" yaml:"name"`
	TaxVariable TaxVariable `json:"tax_variable" yaml:"tax_variable"`
	Description *string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// AmountType enum
type AmountType string

const (
	AmountTypeFixed    AmountType = "fixed"
	AmountTypeVariable AmountType = "variable"
)

// AllowanceSub - Allowance item assignable to an employee, versioned so a
// changed fixed amount only applies from its effective date
type AllowanceSub struct {
	Effective    `yaml:",inline"`
	AllowanceKey string          `json:"allowance_key" yaml:"allowance_key"`
	Name         string          `json:"name" yaml:"name"`
	Category     string          `json:"category" yaml:"category"`
	AmountType   AmountType      `json:"amount_type" yaml:"amount_type"`
	FixedAmount  decimal.Decimal `json:"fixed_amount" yaml:"fixed_amount"`
}

// Balance enum
type Balance string

const (
	BalanceEarning   Balance = "earning"
	BalanceDeduction Balance = "deduction"
)

// PayslipTemplateDetail - One line of a payslip template
type PayslipTemplateDetail struct {
	Order        int     `json:"order" yaml:"order"`
	ComponentKey string  `json:"component_key,omitempty" yaml:"component_key,omitempty"`
	Name         string  `json:"name" yaml:"name"`
	Balance      Balance `json:"balance" yaml:"balance"`
	Tax          bool    `json:"tax" yaml:"tax"`
	TaxDeduction bool    `json:"tax_deduction" yaml:"tax_deduction"`
	Hide         bool    `json:"hide" yaml:"hide"`
	IsProcess    bool    `json:"is_process" yaml:"is_process"`
}

// PayslipTemplate - Ordered payslip layout
type PayslipTemplate struct {
	Effective `yaml:",inline"`
	Name      string                  `json:"name" yaml:"name"`
	Details   []PayslipTemplateDetail `json:"details" yaml:"details"`
}

// ConfigSnapshot - Configuration effective on one pay date
type ConfigSnapshot struct {
	PayDate               time.Time                    `json:"pay_date" yaml:"pay_date"`
	ProgressiveTax        ProgressiveTaxConfig         `json:"progressive_tax" yaml:"progressive_tax"`
	AverageEffectiveRates []AverageEffectiveRateConfig `json:"average_effective_rates" yaml:"average_effective_rates"`
	Contributions         []ContributionConfig         `json:"contributions" yaml:"contributions"`
	Allowances            []AllowanceConfig            `json:"allowances" yaml:"allowances"`
	AllowanceSubs         []AllowanceSub               `json:"allowance_subs" yaml:"allowance_subs"`
}
