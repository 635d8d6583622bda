package payroll

import (
	"fmt"
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ResolveBracket finds the single range containing amount.
// A gap or an overlap means the table is corrupt; the first match is never picked silently.
func ResolveBracket(amount int64, table []payroll.BracketRange) (payroll.BracketRange, error) {
	var matches []payroll.BracketRange
	for _, b := range table {
		if b.Contains(amount) {
			matches = append(matches, b)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return payroll.BracketRange{}, payroll.NewConfigurationError(
			"bracket table has a gap",
			validator.ValidationError{Field: "amount", Message: fmt.Sprintf("no range covers %d", amount)},
		)
	default:
		return payroll.BracketRange{}, payroll.NewConfigurationError(
			"bracket table has overlapping ranges",
			validator.ValidationError{Field: "amount", Message: fmt.Sprintf("%d ranges cover %d", len(matches), amount)},
		)
	}
}

// rateCheck validates one rate and returns a message when it is out of range.
type rateCheck func(rate decimal.Decimal) (string, bool)

func fractionRate(rate decimal.Decimal) (string, bool) {
	return "must be between 0 and 1", validator.IsFraction(rate)
}

func percentageRate(rate decimal.Decimal) (string, bool) {
	return "must be between 0 and 100", validator.IsPercentage(rate)
}

// ValidateBrackets checks that a table starts at zero, is contiguous without
// overlaps in ascending order, and ends with the unbounded sentinel.
func ValidateBrackets(field string, table []payroll.BracketRange, check rateCheck) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if len(table) == 0 {
		errs.Add(field, "at least one range is required")
		return errs
	}

	brackets := sortedBrackets(table)
	for i, b := range brackets {
		f := fmt.Sprintf("%s[%d]", field, i)
		if i > 0 && b.Order == brackets[i-1].Order {
			errs.Add(f+".order", fmt.Sprintf("duplicate order %d", b.Order))
		}
		if msg, ok := check(b.Rate); !ok {
			errs.Add(f+".rate", msg)
		}
		if b.RangeStart < 0 {
			errs.Add(f+".range_start", "must be non-negative")
		}

		last := i == len(brackets)-1
		switch {
		case last && !b.IsUnbounded():
			errs.Add(f+".range_end", "last range must be unbounded (range_end 0)")
		case !last && b.IsUnbounded():
			errs.Add(f+".range_end", "only the last range may be unbounded")
		case !b.IsUnbounded() && b.RangeStart > b.RangeEnd:
			errs.Add(f+".range_start", "must not exceed range_end")
		}

		if i == 0 {
			if b.RangeStart != 0 {
				errs.Add(f+".range_start", "first range must start at 0")
			}
			continue
		}
		prev := brackets[i-1]
		if prev.IsUnbounded() {
			continue
		}
		switch {
		case b.RangeStart-1 > prev.RangeEnd:
			errs.Add(f+".range_start", fmt.Sprintf("gap after previous range ending at %d", prev.RangeEnd))
		case b.RangeStart <= prev.RangeEnd:
			errs.Add(f+".range_start", fmt.Sprintf("overlaps previous range ending at %d", prev.RangeEnd))
		}
	}

	return errs
}

func sortedBrackets(table []payroll.BracketRange) []payroll.BracketRange {
	brackets := make([]payroll.BracketRange, len(table))
	copy(brackets, table)
	sort.SliceStable(brackets, func(i, j int) bool {
		return brackets[i].Order < brackets[j].Order
	})
	return brackets
}

// roundDown floors amount to a multiple of unit. A zero unit means whole currency units.
func roundDown(amount, unit decimal.Decimal) decimal.Decimal {
	if !unit.IsPositive() {
		unit = decimal.NewFromInt(1)
	}
	return amount.Div(unit).Floor().Mul(unit)
}
