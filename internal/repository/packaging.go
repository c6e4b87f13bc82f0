package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/hotel-delivery/internal/domain/packaging"
)

const (
	ruleColumns = `id, name, applicable_type, applicable_to, charge_type, charge_value, active, created_at`

	listRulesSQL = `SELECT ` + ruleColumns + ` FROM packaging_rules ORDER BY created_at, id`

	getRuleSQL = `SELECT ` + ruleColumns + ` FROM packaging_rules WHERE id = $1`

	createRuleSQL = `INSERT INTO packaging_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	updateRuleSQL = `UPDATE packaging_rules SET name = $2, applicable_type = $3, applicable_to = $4,
		charge_type = $5, charge_value = $6, active = $7
		WHERE id = $1`

	deleteRuleSQL = `DELETE FROM packaging_rules WHERE id = $1`
)

var _ packaging.Repository = (*PackagingRepository)(nil)

// PackagingRepository implements packaging.Repository backed by PostgreSQL.
type PackagingRepository struct {
	pool *pgxpool.Pool
}

// NewPackagingRepository returns a PackagingRepository that uses the given pool.
func NewPackagingRepository(pool *pgxpool.Pool) *PackagingRepository {
	return &PackagingRepository{pool: pool}
}

// List returns every rule in creation order.
func (r *PackagingRepository) List(ctx context.Context) ([]packaging.Rule, error) {
	rows, err := r.pool.Query(ctx, listRulesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing packaging rules: %w", err)
	}
	return pgx.CollectRows(rows, scanRule)
}

// Get returns a rule by ID.
func (r *PackagingRepository) Get(ctx context.Context, id string) (*packaging.Rule, error) {
	rows, err := r.pool.Query(ctx, getRuleSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting packaging rule %q: %w", id, err)
	}
	rule, err := pgx.CollectExactlyOneRow(rows, scanRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, packaging.ErrNotFound
		}
		return nil, fmt.Errorf("getting packaging rule %q: %w", id, err)
	}
	return &rule, nil
}

// Create inserts a rule.
func (r *PackagingRepository) Create(ctx context.Context, rule *packaging.Rule) error {
	scope, err := rule.ApplicableTo.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding scope: %w", err)
	}
	_, err = r.pool.Exec(ctx, createRuleSQL,
		rule.ID, rule.Name, string(rule.ApplicableType), scope, string(rule.ChargeType),
		rule.ChargeValue, rule.Active, rule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating packaging rule %q: %w", rule.Name, err)
	}
	return nil
}

// Update replaces a rule's definition.
func (r *PackagingRepository) Update(ctx context.Context, rule *packaging.Rule) error {
	scope, err := rule.ApplicableTo.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding scope: %w", err)
	}
	tag, err := r.pool.Exec(ctx, updateRuleSQL,
		rule.ID, rule.Name, string(rule.ApplicableType), scope, string(rule.ChargeType),
		rule.ChargeValue, rule.Active,
	)
	if err != nil {
		return fmt.Errorf("updating packaging rule %q: %w", rule.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return packaging.ErrNotFound
	}
	return nil
}

// Delete removes a rule.
func (r *PackagingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteRuleSQL, id)
	if err != nil {
		return fmt.Errorf("deleting packaging rule %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return packaging.ErrNotFound
	}
	return nil
}

func scanRule(row pgx.CollectableRow) (packaging.Rule, error) {
	var (
		rule                       packaging.Rule
		applicableType, chargeType string
		scope                      []byte
	)
	err := row.Scan(
		&rule.ID, &rule.Name, &applicableType, &scope, &chargeType,
		&rule.ChargeValue, &rule.Active, &rule.CreatedAt,
	)
	if err != nil {
		return rule, err
	}
	rule.ApplicableType = packaging.ApplicableType(applicableType)
	rule.ChargeType = packaging.ChargeType(chargeType)
	if err := rule.ApplicableTo.UnmarshalJSON(scope); err != nil {
		return rule, fmt.Errorf("decoding scope of rule %q: %w", rule.ID, err)
	}
	return rule, nil
}
