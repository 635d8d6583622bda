package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== EMPLOYEE FACTS ==========

type EmployeeFactsRequest struct {
	EmployeeID     string           `json:"employee_id" yaml:"employee_id"`
	PayDate        string           `json:"pay_date" yaml:"pay_date"` // YYYY-MM-DD
	BasicSalary    decimal.Decimal  `json:"basic_salary" yaml:"basic_salary"`
	DependentCount int              `json:"dependent_count" yaml:"dependent_count"`
	HasTaxID       bool             `json:"has_tax_id" yaml:"has_tax_id"`
	TaxpayerStatus string           `json:"taxpayer_status" yaml:"taxpayer_status"`
	TaxMethod      string           `json:"tax_method" yaml:"tax_method"`
	Period         string           `json:"period,omitempty" yaml:"period,omitempty"` // defaults to monthly
	Allowances     []AllowanceInput `json:"allowances,omitempty" yaml:"allowances,omitempty"`
}

func (r *EmployeeFactsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if _, ok := validator.IsValidDate(r.PayDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "pay_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	if !validator.IsInSlice(r.TaxMethod, []string{string(TaxMethodProgressive), string(TaxMethodAverageEffectiveRate)}) {
		errs = append(errs, validator.ValidationError{Field: "tax_method", Message: "must be 'progressive' or 'average_effective_rate'"})
	}
	if r.Period != "" && !validator.IsInSlice(r.Period, []string{string(PeriodMonthly), string(PeriodYearly)}) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be 'monthly' or 'yearly'"})
	}

	return errs.Err()
}

// ToFacts converts a validated request into engine input.
func (r EmployeeFactsRequest) ToFacts() EmployeeFacts {
	payDate, _ := time.Parse("2006-01-02", r.PayDate)
	period := CalculationPeriod(r.Period)
	if period == "" {
		period = PeriodMonthly
	}
	return EmployeeFacts{
		EmployeeID:     r.EmployeeID,
		PayDate:        payDate,
		BasicSalary:    r.BasicSalary,
		DependentCount: r.DependentCount,
		HasTaxID:       r.HasTaxID,
		TaxpayerStatus: r.TaxpayerStatus,
		TaxMethod:      TaxMethod(r.TaxMethod),
		Period:         period,
		Allowances:     r.Allowances,
	}
}

// ========== PAYSLIP COMPUTATION ==========

type ComputePayslipRequest struct {
	TemplateKey       string               `json:"template_key" yaml:"template_key"`
	ProgressiveTaxKey string               `json:"progressive_tax_key" yaml:"progressive_tax_key"`
	Employee          EmployeeFactsRequest `json:"employee" yaml:"employee"`
}

func (r *ComputePayslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.TemplateKey) {
		errs = append(errs, validator.ValidationError{Field: "template_key", Message: "is required"})
	}
	if validator.IsEmpty(r.ProgressiveTaxKey) {
		errs = append(errs, validator.ValidationError{Field: "progressive_tax_key", Message: "is required"})
	}
	if err := r.Employee.Validate(); err != nil {
		errs = append(errs, prefixed("employee", err)...)
	}

	return errs.Err()
}

type BatchPayslipRequest struct {
	TemplateKey       string                 `json:"template_key" yaml:"template_key"`
	ProgressiveTaxKey string                 `json:"progressive_tax_key" yaml:"progressive_tax_key"`
	Employees         []EmployeeFactsRequest `json:"employees" yaml:"employees"`
}

func (r *BatchPayslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.TemplateKey) {
		errs = append(errs, validator.ValidationError{Field: "template_key", Message: "is required"})
	}
	if validator.IsEmpty(r.ProgressiveTaxKey) {
		errs = append(errs, validator.ValidationError{Field: "progressive_tax_key", Message: "is required"})
	}
	if len(r.Employees) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employees", Message: "at least one employee is required"})
	}

	return errs.Err()
}

type PayslipResult struct {
	EmployeeID string   `json:"employee_id" yaml:"employee_id"`
	Payslip    *Payslip `json:"payslip,omitempty" yaml:"payslip,omitempty"`
	ErrorKind  string   `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type BatchPayslipResponse struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Succeeded int             `json:"succeeded" yaml:"succeeded"`
	Failed    int             `json:"failed" yaml:"failed"`
	Results   []PayslipResult `json:"results" yaml:"results"`
}

// ========== CONFIGURATION VALIDATION ==========

type ValidateConfigRequest struct {
	Date              string `json:"date"`
	TemplateKey       string `json:"template_key"`
	ProgressiveTaxKey string `json:"progressive_tax_key"`
}

func (r *ValidateConfigRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
	}
	if validator.IsEmpty(r.TemplateKey) {
		errs = append(errs, validator.ValidationError{Field: "template_key", Message: "is required"})
	}
	if validator.IsEmpty(r.ProgressiveTaxKey) {
		errs = append(errs, validator.ValidationError{Field: "progressive_tax_key", Message: "is required"})
	}

	return errs.Err()
}

type ValidateConfigResponse struct {
	Date       string            `json:"date"`
	Valid      bool              `json:"valid"`
	Violations map[string]string `json:"violations,omitempty"`
}

func prefixed(prefix string, err error) validator.ValidationErrors {
	var out validator.ValidationErrors
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			out = append(out, validator.ValidationError{Field: prefix + "." + e.Field, Message: e.Message})
		}
		return out
	}
	return validator.ValidationErrors{{Field: prefix, Message: err.Error()}}
}
