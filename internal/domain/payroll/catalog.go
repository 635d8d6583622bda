package payroll

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// Catalog - Every stored version of every configuration record.
// Historical payslips stay reproducible because versions are selected by pay date
// instead of being edited in place.
type Catalog struct {
	ProgressiveTaxes      []ProgressiveTaxConfig       `json:"progressive_taxes" yaml:"progressive_taxes"`
	AverageEffectiveRates []AverageEffectiveRateConfig `json:"average_effective_rates" yaml:"average_effective_rates"`
	Contributions         []ContributionConfig         `json:"contributions" yaml:"contributions"`
	Allowances            []AllowanceConfig            `json:"allowances" yaml:"allowances"`
	AllowanceSubs         []AllowanceSub               `json:"allowance_subs" yaml:"allowance_subs"`
	Templates             []PayslipTemplate            `json:"templates" yaml:"templates"`
}

type versioned interface {
	version() Effective
}

// effectiveAt keeps, per key, the single version effective on date.
// Two versions of the same key effective on the same date is a configuration error.
func effectiveAt[T versioned](kind string, items []T, date time.Time) ([]T, error) {
	seen := make(map[string]bool)
	var result []T
	for _, item := range items {
		v := item.version()
		if !v.EffectiveOn(date) {
			continue
		}
		if seen[v.Key] {
			return nil, NewConfigurationError(
				fmt.Sprintf("overlapping %s versions", kind),
				validator.ValidationError{Field: kind + "." + v.Key, Message: "more than one version effective on " + date.Format("2006-01-02")},
			)
		}
		seen[v.Key] = true
		result = append(result, item)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].version().Key < result[j].version().Key
	})
	return result, nil
}

func effectiveByKey[T versioned](kind string, items []T, key string, date time.Time) (T, error) {
	var zero T
	active, err := effectiveAt(kind, items, date)
	if err != nil {
		return zero, err
	}
	for _, item := range active {
		if item.version().Key == key {
			return item, nil
		}
	}
	return zero, NewConfigurationError(
		fmt.Sprintf("no %s effective on pay date", kind),
		validator.ValidationError{Field: kind + "." + key, Message: "no version effective on " + date.Format("2006-01-02")},
	)
}

// Snapshot selects the configuration effective on payDate.
func (c Catalog) Snapshot(progressiveTaxKey string, payDate time.Time) (ConfigSnapshot, error) {
	progressive, err := effectiveByKey("progressive_tax", c.ProgressiveTaxes, progressiveTaxKey, payDate)
	if err != nil {
		return ConfigSnapshot{}, err
	}
	rates, err := effectiveAt("average_effective_rate", c.AverageEffectiveRates, payDate)
	if err != nil {
		return ConfigSnapshot{}, err
	}
	contributions, err := effectiveAt("contribution", c.Contributions, payDate)
	if err != nil {
		return ConfigSnapshot{}, err
	}
	allowances, err := effectiveAt("allowance", c.Allowances, payDate)
	if err != nil {
		return ConfigSnapshot{}, err
	}
	subs, err := effectiveAt("allowance_sub", c.AllowanceSubs, payDate)
	if err != nil {
		return ConfigSnapshot{}, err
	}

	return ConfigSnapshot{
		PayDate:               payDate,
		ProgressiveTax:        progressive,
		AverageEffectiveRates: rates,
		Contributions:         contributions,
		Allowances:            allowances,
		AllowanceSubs:         subs,
	}, nil
}

// Template selects the payslip template version effective on payDate.
func (c Catalog) Template(key string, payDate time.Time) (PayslipTemplate, error) {
	return effectiveByKey("payslip_template", c.Templates, key, payDate)
}
