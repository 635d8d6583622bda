package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/yamlfile"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
	"github.com/spf13/cobra"
)

var errInvalidConfiguration = errors.New("configuration is invalid")

type options struct {
	catalogPath       string
	templateKey       string
	progressiveTaxKey string
	date              string
	output            string
	logLevel          string
	concurrency       int
	timeout           time.Duration
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "payslip",
		Short:         "Compute statutory payslips from a YAML catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "json" && opts.output != "yaml" {
				return fmt.Errorf("--output must be json or yaml, got %q", opts.output)
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), opts.logLevel))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.catalogPath, "catalog", "catalog.yaml", "Configuration catalog file (YAML)")
	flags.StringVar(&opts.templateKey, "template", "", "Payslip template key")
	flags.StringVar(&opts.progressiveTaxKey, "progressive-tax", "", "Progressive tax configuration key")
	flags.StringVar(&opts.date, "date", "", "Pay date (YYYY-MM-DD); overrides the pay dates in the facts file")
	flags.StringVarP(&opts.output, "output", "o", "json", "Output format (json, yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	_ = cmd.MarkPersistentFlagRequired("template")
	_ = cmd.MarkPersistentFlagRequired("progressive-tax")

	cmd.AddCommand(computeCmd(opts), validateCmd(opts))
	return cmd
}

func computeCmd(opts *options) *cobra.Command {
	var factsPath string

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a payslip for every employee in a facts file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(factsPath)
			if err != nil {
				return fmt.Errorf("open facts file: %w", err)
			}
			defer f.Close()

			var employees []payroll.EmployeeFactsRequest
			if err := yamlfile.Decode(f, &employees); err != nil {
				return fmt.Errorf("parse facts file %s: %w", factsPath, err)
			}
			if opts.date != "" {
				for i := range employees {
					employees[i].PayDate = opts.date
				}
			}

			svc := newService(opts)
			resp, err := svc.RunBatch(cmd.Context(), payroll.BatchPayslipRequest{
				TemplateKey:       opts.templateKey,
				ProgressiveTaxKey: opts.progressiveTaxKey,
				Employees:         employees,
			})
			if err != nil {
				return err
			}
			if err := write(cmd.OutOrStdout(), opts.output, resp); err != nil {
				return err
			}
			if resp.Failed > 0 {
				return fmt.Errorf("%d of %d payslips failed", resp.Failed, len(resp.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&factsPath, "facts", "facts.yaml", "Employee facts file (YAML list)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Employees computed in parallel")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "Batch deadline")
	return cmd
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report every violation in the configuration effective on --date",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := opts.date
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			resp, err := newService(opts).ValidateConfiguration(cmd.Context(), payroll.ValidateConfigRequest{
				Date:              date,
				TemplateKey:       opts.templateKey,
				ProgressiveTaxKey: opts.progressiveTaxKey,
			})
			if err != nil {
				return err
			}
			if err := write(cmd.OutOrStdout(), opts.output, resp); err != nil {
				return err
			}
			if !resp.Valid {
				return errInvalidConfiguration
			}
			return nil
		},
	}
}

func newService(opts *options) payroll.PayrollService {
	return payrollService.NewPayrollService(
		yamlfile.NewCatalogRepository(opts.catalogPath),
		nil,
		payrollService.BatchOptions{Concurrency: opts.concurrency, Timeout: opts.timeout},
	)
}

func write(w io.Writer, format string, v any) error {
	if format == "yaml" {
		return yamlfile.Encode(w, v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
