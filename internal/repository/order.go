package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/hotel-delivery/internal/domain/order"
)

const (
	orderColumns = `id, customer_id, customer_name, customer_phone, customer_email, delivery_address,
		subtotal, packaging_total, discount_amount, total, offer_code, status, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	createOrderItemSQL = `INSERT INTO order_items (order_id, position, menu_item_id, name, quantity,
		price, packaging_charge)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	useOfferSQL = `UPDATE offers SET usage_count = usage_count + 1 WHERE code = $1 RETURNING id`

	createAppliedOfferSQL = `INSERT INTO applied_offers (order_id, offer_id, code, discount_amount)
		VALUES ($1, $2, $3, $4)`

	recordCustomerOrderSQL = `UPDATE customers SET orders = orders + 1, total_spent = total_spent + $2,
		last_order = $3 WHERE id = $1`

	countMenuItemOrderSQL = `UPDATE menu_items SET order_count = order_count + $2 WHERE id = $1`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT order_id, menu_item_id, name, quantity, price, packaging_charge
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	orderStatsSQL = `SELECT COUNT(*),
		COALESCE(SUM(total) FILTER (WHERE status <> 'Cancelled'), 0)
		FROM orders`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order in one transaction together with its side
// effects: the offer usage counter, the customer's history and the order
// counts of the ordered menu items.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createOrderSQL,
			o.ID, o.Customer.ID, o.Customer.Name, o.Customer.Phone, o.Customer.Email,
			o.Customer.Address, o.Subtotal, o.PackagingTotal, o.DiscountAmount, o.Total,
			o.OfferCode, string(o.Status), o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(createOrderItemSQL,
				o.ID, i, it.MenuItemID, it.Name, it.Quantity, it.Price, it.PackagingCharge,
			)
			batch.Queue(countMenuItemOrderSQL, it.MenuItemID, it.Quantity)
		}
		batch.Queue(recordCustomerOrderSQL, o.Customer.ID, o.Total, o.CreatedAt)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting order items: %w", err)
		}

		if o.OfferCode == "" {
			return nil
		}
		var offerID string
		if err := tx.QueryRow(ctx, useOfferSQL, o.OfferCode).Scan(&offerID); err != nil {
			return fmt.Errorf("counting use of offer %q: %w", o.OfferCode, err)
		}
		if _, err := tx.Exec(ctx, createAppliedOfferSQL, o.ID, offerID, o.OfferCode, o.DiscountAmount); err != nil {
			return fmt.Errorf("recording applied offer: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get returns an order with its items.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	orders := []order.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List returns the newest orders matching f, with their items.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	query, args := listOrdersQuery(f)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, at time.Time) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status), at)
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Stats counts every order; revenue excludes cancelled ones.
func (r *OrderRepository) Stats(ctx context.Context) (order.Stats, error) {
	var s order.Stats
	if err := r.pool.QueryRow(ctx, orderStatsSQL).Scan(&s.Orders, &s.Revenue); err != nil {
		return order.Stats{}, fmt.Errorf("computing order stats: %w", err)
	}
	return s, nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
		orders[i].Items = []order.Item{}
	}

	rows, err := r.pool.Query(ctx, getOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("getting order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			it      order.Item
		)
		if err := rows.Scan(&orderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.Price, &it.PackagingCharge); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func listOrdersQuery(f order.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Phone != "" {
		args = append(args, f.Phone)
		where = append(where, fmt.Sprintf("customer_phone = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + orderColumns + ` FROM orders`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Customer.ID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Email,
		&o.Customer.Address, &o.Subtotal, &o.PackagingTotal, &o.DiscountAmount, &o.Total,
		&o.OfferCode, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
