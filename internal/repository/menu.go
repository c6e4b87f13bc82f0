package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/hotel-delivery/internal/domain/menu"
)

const (
	menuColumns = `id, name, description, price, category, veg, available, image, rating,
		order_count, packaging_charge`

	listMenuItemsSQL = `SELECT ` + menuColumns + ` FROM menu_items ORDER BY category, name, id`

	getMenuItemByIDSQL = `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`

	getMenuItemsByIDsSQL = `SELECT ` + menuColumns + ` FROM menu_items WHERE id = ANY($1)`

	createMenuItemSQL = `INSERT INTO menu_items (id, name, description, price, category, veg,
		available, image, rating, order_count, packaging_charge)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	updateMenuItemSQL = `UPDATE menu_items SET name = $2, description = $3, price = $4,
		category = $5, veg = $6, available = $7, image = $8, rating = $9
		WHERE id = $1`

	deleteMenuItemSQL = `DELETE FROM menu_items WHERE id = $1`

	setPackagingChargeSQL = `UPDATE menu_items SET packaging_charge = $2 WHERE id = $1`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns the whole menu ordered by category and name.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// GetByID returns a single menu item.
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &item, nil
}

// GetByIDs returns the menu items matching any of the given IDs. Unknown IDs
// are skipped.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting menu items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// Create inserts a new menu item.
func (r *MenuRepository) Create(ctx context.Context, item *menu.Item) error {
	_, err := r.pool.Exec(ctx, createMenuItemSQL,
		item.ID, item.Name, item.Description, item.Price, item.Category, item.Veg,
		item.Available, item.Image, item.Rating, item.OrderCount, item.PackagingCharge,
	)
	if err != nil {
		return fmt.Errorf("creating menu item %q: %w", item.ID, err)
	}
	return nil
}

// Update replaces the editable fields of a menu item. Order count and
// packaging charge are maintained elsewhere and left untouched.
func (r *MenuRepository) Update(ctx context.Context, item *menu.Item) error {
	tag, err := r.pool.Exec(ctx, updateMenuItemSQL,
		item.ID, item.Name, item.Description, item.Price, item.Category, item.Veg,
		item.Available, item.Image, item.Rating,
	)
	if err != nil {
		return fmt.Errorf("updating menu item %q: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// Delete removes a menu item.
func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteMenuItemSQL, id)
	if err != nil {
		return fmt.Errorf("deleting menu item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// SetPackagingCharges writes every charge in one transaction. Items missing
// from the table are ignored.
func (r *MenuRepository) SetPackagingCharges(ctx context.Context, charges map[string]decimal.Decimal) error {
	if len(charges) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for id, charge := range charges {
			batch.Queue(setPackagingChargeSQL, id, charge.Round(2))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("setting packaging charges: %w", err)
		}
		return nil
	})
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(
		&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Veg,
		&it.Available, &it.Image, &it.Rating, &it.OrderCount, &it.PackagingCharge,
	)
	return it, err
}
