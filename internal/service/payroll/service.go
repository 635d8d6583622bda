package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchOptions bounds batch fan-out.
type BatchOptions struct {
	Concurrency int
	Timeout     time.Duration
}

type PayrollServiceImpl struct {
	catalogRepo payroll.CatalogRepository
	metrics     *metrics.PayrollMetrics
	opts        BatchOptions
}

func NewPayrollService(
	catalogRepo payroll.CatalogRepository,
	payrollMetrics *metrics.PayrollMetrics,
	opts BatchOptions,
) payroll.PayrollService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &PayrollServiceImpl{
		catalogRepo: catalogRepo,
		metrics:     payrollMetrics,
		opts:        opts,
	}
}

// ========== COMPUTATION ==========

func (s *PayrollServiceImpl) ComputePayslip(ctx context.Context, req payroll.ComputePayslipRequest) (payroll.Payslip, error) {
	if err := req.Validate(); err != nil {
		return payroll.Payslip{}, err
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return payroll.Payslip{}, err
	}

	facts := req.Employee.ToFacts()
	snap, err := selectConfiguration(catalog, req.TemplateKey, req.ProgressiveTaxKey, facts.PayDate)
	if err != nil {
		s.metrics.ObservePayslip(payroll.ErrorKind(err))
		return payroll.Payslip{}, err
	}

	slip, err := ComputePayslip(facts, snap.snapshot, snap.template)
	s.metrics.ObservePayslip(payroll.ErrorKind(err))
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("compute payslip for employee %s: %w", facts.EmployeeID, err)
	}
	return slip, nil
}

// RunBatch computes payslips for many employees against one catalog load.
// A failing employee fills its own result slot and never stops the others;
// only the batch deadline or the caller's cancellation ends the run early.
func (s *PayrollServiceImpl) RunBatch(ctx context.Context, req payroll.BatchPayslipRequest) (payroll.BatchPayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchPayslipResponse{}, err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return payroll.BatchPayslipResponse{}, fmt.Errorf("failed to generate batch run id: %w", err)
	}

	start := time.Now()
	defer s.metrics.ObserveBatch(start)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return payroll.BatchPayslipResponse{}, err
	}

	// Snapshots are selected up front, once per distinct pay date, so workers
	// only read shared state.
	snapshots := make(map[string]selection)
	for _, e := range req.Employees {
		if _, ok := snapshots[e.PayDate]; ok {
			continue
		}
		payDate, ok := validator.IsValidDate(e.PayDate)
		if !ok {
			continue
		}
		sel, err := selectConfiguration(catalog, req.TemplateKey, req.ProgressiveTaxKey, payDate)
		sel.err = err
		snapshots[e.PayDate] = sel
	}

	results := make([]payroll.PayslipResult, len(req.Employees))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, e := range req.Employees {
		g.Go(func() error {
			results[i] = s.computeOne(gCtx, e, snapshots[e.PayDate])
			return nil
		})
	}
	_ = g.Wait()

	resp := payroll.BatchPayslipResponse{RunID: runID.String(), Results: results}
	for _, r := range results {
		if r.Payslip != nil {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}

	slog.Info("payslip batch finished",
		"run_id", resp.RunID,
		"template_key", req.TemplateKey,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
		"duration", time.Since(start),
	)

	if err := ctx.Err(); err != nil {
		return resp, fmt.Errorf("payslip batch %s interrupted: %w", resp.RunID, err)
	}
	return resp, nil
}

func (s *PayrollServiceImpl) computeOne(ctx context.Context, req payroll.EmployeeFactsRequest, sel selection) payroll.PayslipResult {
	result := payroll.PayslipResult{EmployeeID: req.EmployeeID}

	fail := func(err error) payroll.PayslipResult {
		kind := payroll.ErrorKind(err)
		s.metrics.ObservePayslip(kind)
		slog.Warn("payslip computation failed",
			"employee_id", req.EmployeeID,
			"error_kind", kind,
			"error", err,
		)
		result.ErrorKind = kind
		result.Error = err.Error()
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := req.Validate(); err != nil {
		var violations validator.ValidationErrors
		if errors.As(err, &violations) {
			return fail(payroll.NewValidationError(violations))
		}
		return fail(err)
	}
	if sel.err != nil {
		return fail(sel.err)
	}

	slip, err := ComputePayslip(req.ToFacts(), sel.snapshot, sel.template)
	if err != nil {
		return fail(err)
	}
	s.metrics.ObservePayslip(payroll.ErrorKind(nil))
	result.Payslip = &slip
	return result
}

// ========== CONFIGURATION ==========

// ValidateConfiguration reports every problem the configuration effective on a
// date would cause, instead of stopping at the first one.
func (s *PayrollServiceImpl) ValidateConfiguration(ctx context.Context, req payroll.ValidateConfigRequest) (payroll.ValidateConfigResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ValidateConfigResponse{}, err
	}
	date, _ := validator.IsValidDate(req.Date)

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return payroll.ValidateConfigResponse{}, err
	}

	violations := ConfigurationViolations(catalog, req.TemplateKey, req.ProgressiveTaxKey, date)
	return payroll.ValidateConfigResponse{
		Date:       req.Date,
		Valid:      len(violations) == 0,
		Violations: violations.ToMap(),
	}, nil
}

// ConfigurationViolations collects the violations of the snapshot and template
// effective on date, including template keys that would not resolve.
func ConfigurationViolations(catalog payroll.Catalog, templateKey, progressiveTaxKey string, date time.Time) validator.ValidationErrors {
	var errs validator.ValidationErrors

	snapshot, err := catalog.Snapshot(progressiveTaxKey, date)
	if err != nil {
		return append(errs, violationsOf(err)...)
	}
	tpl, err := catalog.Template(templateKey, date)
	if err != nil {
		return append(errs, violationsOf(err)...)
	}

	errs = append(errs, ValidateSnapshot(snapshot)...)
	components, err := newComponentRegistry(snapshot)
	if err != nil {
		return append(errs, violationsOf(err)...)
	}
	errs = append(errs, ValidateTemplate(tpl, components)...)
	for _, d := range tpl.Details {
		if d.ComponentKey == "" {
			continue
		}
		if _, ok := components[d.ComponentKey]; !ok {
			errs.Add(fmt.Sprintf("details[order=%d].component_key", d.Order), fmt.Sprintf("unknown component %s", d.ComponentKey))
		}
	}
	return errs
}

func violationsOf(err error) validator.ValidationErrors {
	var cfgErr *payroll.ConfigurationError
	if errors.As(err, &cfgErr) && len(cfgErr.Violations) > 0 {
		return cfgErr.Violations
	}
	return validator.ValidationErrors{{Field: "configuration", Message: err.Error()}}
}

// ========== HELPERS ==========

type selection struct {
	snapshot payroll.ConfigSnapshot
	template payroll.PayslipTemplate
	err      error
}

func selectConfiguration(catalog payroll.Catalog, templateKey, progressiveTaxKey string, payDate time.Time) (selection, error) {
	snapshot, err := catalog.Snapshot(progressiveTaxKey, payDate)
	if err != nil {
		return selection{}, err
	}
	tpl, err := catalog.Template(templateKey, payDate)
	if err != nil {
		return selection{}, err
	}
	return selection{snapshot: snapshot, template: tpl}, nil
}

func (s *PayrollServiceImpl) loadCatalog(ctx context.Context) (payroll.Catalog, error) {
	catalog, err := s.catalogRepo.LoadCatalog(ctx)
	if err != nil {
		return payroll.Catalog{}, fmt.Errorf("%w: %w", payroll.ErrCatalogUnavailable, err)
	}
	return catalog, nil
}
