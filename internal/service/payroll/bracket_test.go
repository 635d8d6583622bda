package payroll

import (
	"math"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBracket_Success(t *testing.T) {
	table := statutoryBrackets()

	tests := []struct {
		amount    int64
		wantOrder int
	}{
		{0, 1},
		{60_000_000, 1},
		{60_000_001, 2},
		{250_000_000, 2},
		{250_000_001, 3},
		{9_000_000_000, 3},
	}

	for _, tt := range tests {
		got, err := ResolveBracket(tt.amount, table)
		require.NoError(t, err)
		assert.Equal(t, tt.wantOrder, got.Order, "amount %d", tt.amount)
	}
}

func TestResolveBracket_Gap(t *testing.T) {
	table := []payroll.BracketRange{
		{Order: 1, RangeStart: 0, RangeEnd: 1000, Rate: d("0.05")},
		{Order: 2, RangeStart: 2000, RangeEnd: payroll.Unbounded, Rate: d("0.1")},
	}

	_, err := ResolveBracket(1500, table)

	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrConfiguration)
	assert.Contains(t, err.Error(), "gap")
}

func TestResolveBracket_OverlapNeverPicksFirst(t *testing.T) {
	table := []payroll.BracketRange{
		{Order: 1, RangeStart: 0, RangeEnd: 1000, Rate: d("0.05")},
		{Order: 2, RangeStart: 900, RangeEnd: payroll.Unbounded, Rate: d("0.1")},
	}

	_, err := ResolveBracket(950, table)

	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrConfiguration)
	assert.Contains(t, err.Error(), "overlapping")
}

func TestValidateBrackets(t *testing.T) {
	tests := []struct {
		name      string
		table     []payroll.BracketRange
		wantField string
	}{
		{
			name:      "empty",
			table:     nil,
			wantField: "brackets",
		},
		{
			name: "gap",
			table: []payroll.BracketRange{
				{Order: 1, RangeStart: 0, RangeEnd: 100, Rate: d("0.05")},
				{Order: 2, RangeStart: 150, RangeEnd: payroll.Unbounded, Rate: d("0.1")},
			},
			wantField: "brackets[1].range_start",
		},
		{
			name: "overlap",
			table: []payroll.BracketRange{
				{Order: 1, RangeStart: 0, RangeEnd: 100, Rate: d("0.05")},
				{Order: 2, RangeStart: 100, RangeEnd: payroll.Unbounded, Rate: d("0.1")},
			},
			wantField: "brackets[1].range_start",
		},
		{
			name: "bounded tail",
			table: []payroll.BracketRange{
				{Order: 1, RangeStart: 0, RangeEnd: 100, Rate: d("0.05")},
			},
			wantField: "brackets[0].range_end",
		},
		{
			name: "unbounded in the middle",
			table: []payroll.BracketRange{
				{Order: 1, RangeStart: 0, RangeEnd: payroll.Unbounded, Rate: d("0.05")},
				{Order: 2, RangeStart: 101, RangeEnd: payroll.Unbounded, Rate: d("0.1")},
			},
			wantField: "brackets[0].range_end",
		},
		{
			name: "inverted",
			table: []payroll.BracketRange{
				{Order: 1, RangeStart: 0, RangeEnd: 100, Rate: d("0.05")},
				{Order: 2, RangeStart: 101, RangeEnd: 50, Rate: d("0.1")},
				{Order: 3, RangeStart: 51, RangeEnd: payroll.Unbounded, Rate: d("0.2")},
			},
			wantField: "brackets[1].range_start",
		},
		{
			name: "does not start at zero",
			table: []payroll.BracketRange{
				{Order: 1, RangeStart: 10, RangeEnd: payroll.Unbounded, Rate: d("0.05")},
			},
			wantField: "brackets[0].range_start",
		},
		{
			name: "negative rate",
			table: []payroll.BracketRange{
				{Order: 1, RangeStart: 0, RangeEnd: payroll.Unbounded, Rate: d("-0.05")},
			},
			wantField: "brackets[0].rate",
		},
		{
			name: "duplicate order",
			table: []payroll.BracketRange{
				{Order: 1, RangeStart: 0, RangeEnd: 100, Rate: d("0.05")},
				{Order: 1, RangeStart: 101, RangeEnd: payroll.Unbounded, Rate: d("0.1")},
			},
			wantField: "brackets[1].order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateBrackets("brackets", tt.table, fractionRate)
			require.NotEmpty(t, errs)
			assert.Contains(t, errs.ToMap(), tt.wantField)
		})
	}
}

func TestValidateBrackets_RangeEndAtMaxInt64(t *testing.T) {
	table := []payroll.BracketRange{
		{Order: 1, RangeStart: 0, RangeEnd: math.MaxInt64, Rate: d("0.05")},
		{Order: 2, RangeStart: math.MaxInt64, RangeEnd: payroll.Unbounded, Rate: d("0.1")},
	}

	errs := ValidateBrackets("brackets", table, fractionRate)

	require.Len(t, errs, 1)
	assert.Equal(t, "brackets[1].range_start", errs[0].Field)
	assert.Contains(t, errs[0].Message, "overlaps")
}

func TestValidateBrackets_ValidTables(t *testing.T) {
	assert.Empty(t, ValidateBrackets("brackets", statutoryBrackets(), fractionRate))
	for _, c := range testAverageEffectiveRates() {
		assert.Empty(t, ValidateBrackets("details", c.Brackets(), percentageRate), c.Key)
	}
}

func TestValidateBrackets_OrderDrivesSequence(t *testing.T) {
	table := statutoryBrackets()
	table[0], table[2] = table[2], table[0]

	assert.Empty(t, ValidateBrackets("brackets", table, fractionRate))
}

func TestRoundDown(t *testing.T) {
	assertDecimal(t, "9001000", roundDown(d("9001500"), d("1000")))
	assertDecimal(t, "253750", roundDown(d("253750.9"), d("0")))
	assertDecimal(t, "100", roundDown(d("100"), d("1")))
	assertDecimal(t, "0", roundDown(d("999"), d("1000")))
}
