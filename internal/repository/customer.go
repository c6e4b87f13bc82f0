package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/hotel-delivery/internal/domain/customer"
)

const (
	customerColumns = `id, name, phone, email, address, orders, total_spent, last_order, created_at`

	getCustomerByPhoneSQL = `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1`

	getCustomerSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	listCustomersSQL = `SELECT ` + customerColumns + ` FROM customers
		ORDER BY last_order DESC NULLS LAST, created_at DESC`

	createCustomerSQL = `INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// FindByPhone returns the customer registered with a normalized phone number.
func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	return r.one(ctx, getCustomerByPhoneSQL, phone)
}

// Get returns a customer by ID.
func (r *CustomerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	return r.one(ctx, getCustomerSQL, id)
}

// List returns every customer, most recent buyers first.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// Create inserts a customer.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := r.pool.Exec(ctx, createCustomerSQL,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.Orders, c.TotalSpent, c.LastOrder, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating customer %q: %w", c.Phone, err)
	}
	return nil
}

func (r *CustomerRepository) one(ctx context.Context, query, arg string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting customer %q: %w", arg, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", arg, err)
	}
	return &c, nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Orders, &c.TotalSpent,
		&c.LastOrder, &c.CreatedAt,
	)
	return c, err
}
