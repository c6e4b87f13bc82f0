package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/hotel-delivery/internal/domain/offer"
)

const (
	offerColumns = `id, name, code, description, discount_type, discount_value, min_order_value,
		max_discount, applicable_items, start_date, end_date, active, usage_count, created_at`

	getOfferByCodeSQL = `SELECT ` + offerColumns + ` FROM offers WHERE code = UPPER($1)`

	getOfferByIDSQL = `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	listOffersSQL = `SELECT ` + offerColumns + ` FROM offers ORDER BY created_at, id`

	listActiveOffersSQL = `SELECT ` + offerColumns + ` FROM offers
		WHERE active AND start_date <= $1 AND end_date >= $1
		ORDER BY created_at, id`

	createOfferSQL = `INSERT INTO offers (id, name, code, description, discount_type, discount_value,
		min_order_value, max_discount, applicable_items, start_date, end_date, active, usage_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	updateOfferSQL = `UPDATE offers SET name = $2, code = $3, description = $4, discount_type = $5,
		discount_value = $6, min_order_value = $7, max_discount = $8, applicable_items = $9,
		start_date = $10, end_date = $11, active = $12
		WHERE id = $1`

	deleteOfferSQL = `DELETE FROM offers WHERE id = $1`

	upsertOfferByCodeSQL = `INSERT INTO offers (id, name, code, description, discount_type, discount_value,
		min_order_value, max_discount, applicable_items, start_date, end_date, active, usage_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,
		discount_type = EXCLUDED.discount_type, discount_value = EXCLUDED.discount_value,
		min_order_value = EXCLUDED.min_order_value, max_discount = EXCLUDED.max_discount,
		applicable_items = EXCLUDED.applicable_items, start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date, active = EXCLUDED.active`
)

const uniqueViolation = "23505"

var _ offer.Repository = (*OfferRepository)(nil)

// OfferRepository implements offer.Repository backed by PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// FindByCode looks up an offer by its normalized code regardless of its
// state. Returns offer.ErrNotFound when no offer has the code.
func (r *OfferRepository) FindByCode(ctx context.Context, code string) (*offer.Offer, error) {
	return r.one(ctx, getOfferByCodeSQL, code)
}

// Get returns an offer by ID.
func (r *OfferRepository) Get(ctx context.Context, id string) (*offer.Offer, error) {
	return r.one(ctx, getOfferByIDSQL, id)
}

// List returns every offer, oldest first.
func (r *OfferRepository) List(ctx context.Context) ([]offer.Offer, error) {
	rows, err := r.pool.Query(ctx, listOffersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing offers: %w", err)
	}
	return pgx.CollectRows(rows, scanOffer)
}

// ListActive returns the offers that are active and inside their date window at now.
func (r *OfferRepository) ListActive(ctx context.Context, now time.Time) ([]offer.Offer, error) {
	rows, err := r.pool.Query(ctx, listActiveOffersSQL, now)
	if err != nil {
		return nil, fmt.Errorf("listing active offers: %w", err)
	}
	return pgx.CollectRows(rows, scanOffer)
}

// Create inserts an offer. A taken code yields offer.ErrDuplicateCode.
func (r *OfferRepository) Create(ctx context.Context, o *offer.Offer) error {
	applicable, err := o.Applicability.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding applicability: %w", err)
	}
	_, err = r.pool.Exec(ctx, createOfferSQL,
		o.ID, o.Name, o.Code, o.Description, string(o.DiscountType), o.DiscountValue,
		o.MinOrderValue, o.MaxDiscount, applicable, o.StartDate, o.EndDate, o.Active,
		o.UsageCount, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return offer.ErrDuplicateCode
		}
		return fmt.Errorf("creating offer %q: %w", o.Code, err)
	}
	return nil
}

// Update replaces an offer's definition. The usage counter is left untouched.
func (r *OfferRepository) Update(ctx context.Context, o *offer.Offer) error {
	applicable, err := o.Applicability.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding applicability: %w", err)
	}
	tag, err := r.pool.Exec(ctx, updateOfferSQL,
		o.ID, o.Name, o.Code, o.Description, string(o.DiscountType), o.DiscountValue,
		o.MinOrderValue, o.MaxDiscount, applicable, o.StartDate, o.EndDate, o.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return offer.ErrDuplicateCode
		}
		return fmt.Errorf("updating offer %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return offer.ErrNotFound
	}
	return nil
}

// Delete removes an offer.
func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOfferSQL, id)
	if err != nil {
		return fmt.Errorf("deleting offer %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return offer.ErrNotFound
	}
	return nil
}

// UpsertBatch inserts offers sharing a campaign template, updating the
// definition of codes that already exist. Existing IDs and usage counters
// are kept.
func (r *OfferRepository) UpsertBatch(ctx context.Context, offers []offer.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range offers {
		o := &offers[i]
		applicable, err := o.Applicability.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding applicability of %q: %w", o.Code, err)
		}
		batch.Queue(upsertOfferByCodeSQL,
			o.ID, o.Name, o.Code, o.Description, string(o.DiscountType), o.DiscountValue,
			o.MinOrderValue, o.MaxDiscount, applicable, o.StartDate, o.EndDate, o.Active,
			o.CreatedAt,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d offers: %w", len(offers), err)
	}
	return nil
}

func (r *OfferRepository) one(ctx context.Context, query string, arg string) (*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting offer %q: %w", arg, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOffer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, offer.ErrNotFound
		}
		return nil, fmt.Errorf("getting offer %q: %w", arg, err)
	}
	return &o, nil
}

func scanOffer(row pgx.CollectableRow) (offer.Offer, error) {
	var (
		o            offer.Offer
		discountType string
		applicable   []byte
	)
	err := row.Scan(
		&o.ID, &o.Name, &o.Code, &o.Description, &discountType, &o.DiscountValue,
		&o.MinOrderValue, &o.MaxDiscount, &applicable, &o.StartDate, &o.EndDate,
		&o.Active, &o.UsageCount, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.DiscountType = offer.DiscountType(discountType)
	if err := o.Applicability.UnmarshalJSON(applicable); err != nil {
		return o, fmt.Errorf("decoding applicability of offer %q: %w", o.ID, err)
	}
	return o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
