package payroll

import "context"

type PayrollService interface {
	// Computation
	ComputePayslip(ctx context.Context, req ComputePayslipRequest) (Payslip, error)
	RunBatch(ctx context.Context, req BatchPayslipRequest) (BatchPayslipResponse, error)

	// Configuration
	ValidateConfiguration(ctx context.Context, req ValidateConfigRequest) (ValidateConfigResponse, error)
}
