package postgresql

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

//go:embed schema.sql
var catalogSchema string

// EnsureCatalogSchema creates the configuration tables when they are missing.
func EnsureCatalogSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, catalogSchema); err != nil {
		return fmt.Errorf("failed to apply payroll catalog schema: %w", err)
	}
	return nil
}

type catalogRepository struct {
	db *database.DB
}

func NewCatalogRepository(db *database.DB) payroll.CatalogRepository {
	return &catalogRepository{db: db}
}

func versionKey(key string, effectiveFrom time.Time) string {
	return key + "@" + effectiveFrom.Format("2006-01-02")
}

// LoadCatalog reads every configuration version inside one read-only,
// repeatable-read transaction so all tables reflect the same point in time.
func (r *catalogRepository) LoadCatalog(ctx context.Context) (payroll.Catalog, error) {
	var catalog payroll.Catalog
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	err := WithTransaction(ctx, r.db, opts, func(ctx context.Context) error {
		var err error
		if catalog.ProgressiveTaxes, err = r.progressiveTaxes(ctx); err != nil {
			return err
		}
		if catalog.AverageEffectiveRates, err = r.averageEffectiveRates(ctx); err != nil {
			return err
		}
		if catalog.Contributions, err = r.contributions(ctx); err != nil {
			return err
		}
		if catalog.Allowances, err = r.allowances(ctx); err != nil {
			return err
		}
		if catalog.AllowanceSubs, err = r.allowanceSubs(ctx); err != nil {
			return err
		}
		if catalog.Templates, err = r.templates(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return payroll.Catalog{}, err
	}

	return catalog, nil
}

// ========== PROGRESSIVE TAX ==========

func (r *catalogRepository) progressiveTaxes(ctx context.Context) ([]payroll.ProgressiveTaxConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT key, effective_from, effective_to, name, description,
			   ptkp_yearly, ptkp_monthly, max_dependent,
			   dependent_deduction_yearly, dependent_deduction_monthly,
			   allowance_cost_rate, allowance_cost_cap_yearly, allowance_cost_cap_monthly,
			   rounding, non_tax_id_surcharge_rate
		FROM progressive_tax_configs
		ORDER BY key, effective_from
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list progressive tax configs: %w", err)
	}
	defer rows.Close()

	var configs []payroll.ProgressiveTaxConfig
	for rows.Next() {
		var c payroll.ProgressiveTaxConfig
		if err := rows.Scan(
			&c.Key, &c.EffectiveFrom, &c.EffectiveTo, &c.Name, &c.Description,
			&c.PTKPYearly, &c.PTKPMonthly, &c.MaxDependent,
			&c.DependentDeductionYearly, &c.DependentDeductionMonthly,
			&c.AllowanceCostRate, &c.AllowanceCostCapYearly, &c.AllowanceCostCapMonthly,
			&c.Rounding, &c.NonTaxIDSurchargeRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan progressive tax config: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate progressive tax configs: %w", err)
	}

	brackets, err := r.progressiveTaxBrackets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range configs {
		configs[i].Brackets = brackets[versionKey(configs[i].Key, configs[i].EffectiveFrom)]
	}

	return configs, nil
}

func (r *catalogRepository) progressiveTaxBrackets(ctx context.Context) (map[string][]payroll.BracketRange, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT config_key, effective_from, sort_order, range_start, range_end, rate
		FROM progressive_tax_brackets
		ORDER BY config_key, effective_from, sort_order
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list progressive tax brackets: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]payroll.BracketRange)
	for rows.Next() {
		var (
			configKey     string
			effectiveFrom time.Time
			b             payroll.BracketRange
		)
		if err := rows.Scan(&configKey, &effectiveFrom, &b.Order, &b.RangeStart, &b.RangeEnd, &b.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan progressive tax bracket: %w", err)
		}
		k := versionKey(configKey, effectiveFrom)
		result[k] = append(result[k], b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate progressive tax brackets: %w", err)
	}

	return result, nil
}

// ========== AVERAGE EFFECTIVE RATE ==========

func (r *catalogRepository) averageEffectiveRates(ctx context.Context) ([]payroll.AverageEffectiveRateConfig, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT key, effective_from, effective_to, name, status_categories, description
		FROM average_effective_rate_configs
		ORDER BY key, effective_from
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list average effective rate configs: %w", err)
	}
	defer rows.Close()

	var configs []payroll.AverageEffectiveRateConfig
	for rows.Next() {
		var c payroll.AverageEffectiveRateConfig
		if err := rows.Scan(&c.Key, &c.EffectiveFrom, &c.EffectiveTo, &c.Name, &c.StatusCategories, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan average effective rate config: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate average effective rate configs: %w", err)
	}

	detailRows, err := q.Query(ctx, `
		SELECT parent_key, effective_from, sort_order, range_start, range_end, rate_percentage
		FROM average_effective_rate_details
		ORDER BY parent_key, effective_from, sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list average effective rate details: %w", err)
	}
	defer detailRows.Close()

	details := make(map[string][]payroll.AverageEffectiveRateDetail)
	for detailRows.Next() {
		var (
			effectiveFrom time.Time
			dt            payroll.AverageEffectiveRateDetail
		)
		if err := detailRows.Scan(&dt.ParentKey, &effectiveFrom, &dt.Order, &dt.RangeStart, &dt.RangeEnd, &dt.RatePercentage); err != nil {
			return nil, fmt.Errorf("failed to scan average effective rate detail: %w", err)
		}
		k := versionKey(dt.ParentKey, effectiveFrom)
		details[k] = append(details[k], dt)
	}
	if err := detailRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate average effective rate details: %w", err)
	}

	for i := range configs {
		configs[i].Details = details[versionKey(configs[i].Key, configs[i].EffectiveFrom)]
	}
	return configs, nil
}

// ========== CONTRIBUTIONS ==========

func (r *catalogRepository) contributions(ctx context.Context) ([]payroll.ContributionConfig, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT key, effective_from, effective_to, name, base_on_calculation, base_on_fixed_amount,
			   min_amount, max_amount, rounding, description
		FROM contribution_configs
		ORDER BY key, effective_from
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution configs: %w", err)
	}
	defer rows.Close()

	var configs []payroll.ContributionConfig
	for rows.Next() {
		var c payroll.ContributionConfig
		if err := rows.Scan(
			&c.Key, &c.EffectiveFrom, &c.EffectiveTo, &c.Name, &c.BaseOnCalculation, &c.BaseOnFixedAmount,
			&c.MinAmount, &c.MaxAmount, &c.Rounding, &c.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contribution config: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contribution configs: %w", err)
	}

	subRows, err := q.Query(ctx, `
		SELECT config_key, effective_from, name, percentage
		FROM contribution_subs
		ORDER BY config_key, effective_from, sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution subs: %w", err)
	}
	defer subRows.Close()

	subs := make(map[string][]payroll.ContributionSubConfig)
	for subRows.Next() {
		var (
			configKey     string
			effectiveFrom time.Time
			s             payroll.ContributionSubConfig
		)
		if err := subRows.Scan(&configKey, &effectiveFrom, &s.Name, &s.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan contribution sub: %w", err)
		}
		k := versionKey(configKey, effectiveFrom)
		subs[k] = append(subs[k], s)
	}
	if err := subRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contribution subs: %w", err)
	}

	for i := range configs {
		configs[i].Subs = subs[versionKey(configs[i].Key, configs[i].EffectiveFrom)]
	}
	return configs, nil
}

// ========== ALLOWANCES ==========

func (r *catalogRepository) allowances(ctx context.Context) ([]payroll.AllowanceConfig, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT key, effective_from, effective_to, name, tax_variable, description
		FROM allowance_configs
		ORDER BY key, effective_from
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowance configs: %w", err)
	}
	defer rows.Close()

	var configs []payroll.AllowanceConfig
	for rows.Next() {
		var a payroll.AllowanceConfig
		if err := rows.Scan(&a.Key, &a.EffectiveFrom, &a.EffectiveTo, &a.Name, &a.TaxVariable, &a.Description); err != nil {
			return nil, fmt.Errorf("failed to scan allowance config: %w", err)
		}
		configs = append(configs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allowance configs: %w", err)
	}
	return configs, nil
}

func (r *catalogRepository) allowanceSubs(ctx context.Context) ([]payroll.AllowanceSub, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT key, effective_from, effective_to, allowance_key, name, category, amount_type, fixed_amount
		FROM allowance_subs
		ORDER BY key, effective_from
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowance subs: %w", err)
	}
	defer rows.Close()

	var subs []payroll.AllowanceSub
	for rows.Next() {
		var s payroll.AllowanceSub
		if err := rows.Scan(&s.Key, &s.EffectiveFrom, &s.EffectiveTo, &s.AllowanceKey, &s.Name, &s.Category, &s.AmountType, &s.FixedAmount); err != nil {
			return nil, fmt.Errorf("failed to scan allowance sub: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allowance subs: %w", err)
	}
	return subs, nil
}

// ========== TEMPLATES ==========

func (r *catalogRepository) templates(ctx context.Context) ([]payroll.PayslipTemplate, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT key, effective_from, effective_to, name
		FROM payslip_templates
		ORDER BY key, effective_from
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslip templates: %w", err)
	}
	defer rows.Close()

	var templates []payroll.PayslipTemplate
	for rows.Next() {
		var t payroll.PayslipTemplate
		if err := rows.Scan(&t.Key, &t.EffectiveFrom, &t.EffectiveTo, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan payslip template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payslip templates: %w", err)
	}

	detailRows, err := q.Query(ctx, `
		SELECT template_key, effective_from, sort_order, component_key, name, balance,
			   tax, tax_deduction, hide, is_process
		FROM payslip_template_details
		ORDER BY template_key, effective_from, sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslip template details: %w", err)
	}
	defer detailRows.Close()

	details := make(map[string][]payroll.PayslipTemplateDetail)
	for detailRows.Next() {
		var (
			templateKey   string
			effectiveFrom time.Time
			dt            payroll.PayslipTemplateDetail
		)
		if err := detailRows.Scan(
			&templateKey, &effectiveFrom, &dt.Order, &dt.ComponentKey, &dt.Name, &dt.Balance,
			&dt.Tax, &dt.TaxDeduction, &dt.Hide, &dt.IsProcess,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payslip template detail: %w", err)
		}
		k := versionKey(templateKey, effectiveFrom)
		details[k] = append(details[k], dt)
	}
	if err := detailRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payslip template details: %w", err)
	}

	for i := range templates {
		templates[i].Details = details[versionKey(templates[i].Key, templates[i].EffectiveFrom)]
	}
	return templates, nil
}
