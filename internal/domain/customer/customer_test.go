package customer

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byPhone map[string]*Customer
	findErr error
	created []*Customer
}

func (m *mockRepo) FindByPhone(_ context.Context, phone string) (*Customer, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if c, ok := m.byPhone[phone]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Get(_ context.Context, _ string) (*Customer, error) { return nil, ErrNotFound }

func (m *mockRepo) List(_ context.Context) ([]Customer, error) { return nil, nil }

func (m *mockRepo) Create(_ context.Context, c *Customer) error {
	m.created = append(m.created, c)
	return nil
}

func validDetails() Details {
	return Details{Name: " Asha ", Phone: "+91 98765-43210", Address: "12 MG Road"}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizePhone(" +91 98765-43210 "))
	assert.Equal(t, "9876543210", NormalizePhone("(987) 654 3210"))
}

func TestDetails_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Details)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Details) {}},
		{name: "missing name", mutate: func(d *Details) { d.Name = "  " }, wantErr: true},
		{name: "short phone", mutate: func(d *Details) { d.Phone = "12-34" }, wantErr: true},
		{name: "missing address", mutate: func(d *Details) { d.Address = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(&d)

			got, err := d.Normalize()

			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDetails)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Asha", got.Name)
			assert.Equal(t, "+919876543210", got.Phone)
		})
	}
}

func TestFindOrCreate_Existing(t *testing.T) {
	existing := &Customer{ID: "c1", Name: "Asha", Phone: "+919876543210"}
	repo := &mockRepo{byPhone: map[string]*Customer{existing.Phone: existing}}

	got, err := NewService(repo).FindOrCreate(context.Background(), validDetails())

	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.Empty(t, repo.created)
}

func TestFindOrCreate_New(t *testing.T) {
	repo := &mockRepo{byPhone: map[string]*Customer{}}

	got, err := NewService(repo).FindOrCreate(context.Background(), validDetails())

	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "+919876543210", got.Phone)
	assert.True(t, got.TotalSpent.IsZero())
}

func TestFindOrCreate_LookupError(t *testing.T) {
	dbErr := errors.New("timeout")
	repo := &mockRepo{findErr: dbErr}

	_, err := NewService(repo).FindOrCreate(context.Background(), validDetails())

	require.ErrorIs(t, err, dbErr)
	assert.Empty(t, repo.created)
}
