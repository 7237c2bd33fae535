package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/posbill/posbill-saas/platform/go/access"
)

const PlansTable = "subscription_plans"

// CreatePlanParams describes a plan catalog entry.
type CreatePlanParams struct {
	Name             string
	MonthlyPrice     int64
	YearlyPrice      int64
	MaxUsers         int
	MaxProducts      int
	MaxBillsPerMonth *int
	Features         map[string]bool
}

// PlanStore reads and writes the plan catalog.
type PlanStore struct {
	pool *pgxpool.Pool
}

func NewPlanStore(ctx context.Context, pool *pgxpool.Pool) (*PlanStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PlanStore{pool: pool}, nil
}

// CreatePlan inserts a plan, or updates limits and features when a plan with the same name exists.
func (s *PlanStore) CreatePlan(ctx context.Context, params CreatePlanParams) (access.Plan, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return access.Plan{}, errors.New("plan name is required")
	}
	if params.MaxUsers < 0 || params.MaxProducts < 0 {
		return access.Plan{}, errors.New("plan limits must not be negative")
	}

	features := params.Features
	if features == nil {
		features = map[string]bool{}
	}
	rawFeatures, err := json.Marshal(features)
	if err != nil {
		return access.Plan{}, fmt.Errorf("encode features: %w", err)
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (name, monthly_price, yearly_price, max_users, max_products, max_bills_per_month, features)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (name) DO UPDATE SET
            monthly_price = EXCLUDED.monthly_price,
            yearly_price = EXCLUDED.yearly_price,
            max_users = EXCLUDED.max_users,
            max_products = EXCLUDED.max_products,
            max_bills_per_month = EXCLUDED.max_bills_per_month,
            features = EXCLUDED.features
        RETURNING %s
    `, PlansTable, planColumns("")), name, params.MonthlyPrice, params.YearlyPrice,
		params.MaxUsers, params.MaxProducts, params.MaxBillsPerMonth, rawFeatures)

	return scanPlan(row)
}

// ListPlans returns the catalog ordered by monthly price.
func (s *PlanStore) ListPlans(ctx context.Context) ([]access.Plan, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY monthly_price, name`, planColumns(""), PlansTable))
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := make([]access.Plan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

// GetPlanByName looks a plan up by its unique name.
func (s *PlanStore) GetPlanByName(ctx context.Context, name string) (access.Plan, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE name = $1`, planColumns(""), PlansTable), strings.TrimSpace(name))
	return scanPlan(row)
}

func planColumns(alias string) string {
	cols := []string{"plan_id", "name", "monthly_price", "yearly_price", "max_users", "max_products", "max_bills_per_month", "features"}
	if alias == "" {
		return strings.Join(cols, ", ")
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func scanPlan(row pgx.Row) (access.Plan, error) {
	var (
		plan     access.Plan
		maxBills *int32
		features []byte
	)
	if err := row.Scan(&plan.ID, &plan.Name, &plan.MonthlyPrice, &plan.YearlyPrice, &plan.MaxUsers, &plan.MaxProducts, &maxBills, &features); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.Plan{}, ErrNotFound
		}
		return access.Plan{}, err
	}

	if maxBills != nil {
		v := int(*maxBills)
		plan.MaxBillsPerMonth = &v
	}

	var err error
	if plan.Features, err = decodeFeatures(features); err != nil {
		return access.Plan{}, fmt.Errorf("plan %s: %w", plan.ID, err)
	}
	return plan, nil
}

// decodeFeatures reads the JSONB feature map. Only JSON booleans are accepted: a plan row holding 1 or
// "true" is rejected rather than read as enabled or disabled. The column's CHECK constraint keeps such
// rows out of the table in the first place.
func decodeFeatures(raw []byte) (map[string]bool, error) {
	out := map[string]bool{}
	if len(raw) == 0 {
		return out, nil
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	for name, v := range values {
		enabled, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("decode features: %q has non-boolean value %v", name, v)
		}
		out[name] = enabled
	}
	return out, nil
}
