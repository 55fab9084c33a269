//go:build integration

package catalog_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodluckbakery/shop/internal/catalog"
	"github.com/goodluckbakery/shop/internal/postgres"
)

func testDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	migrate := "pgx5://" + strings.TrimPrefix(strings.TrimPrefix(dsn, "postgres://"), "postgresql://")
	require.NoError(t, postgres.Migrate(migrate))
	pool, err := postgres.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestListProductsSortedByRating(t *testing.T) {
	db := testDB(t)
	repo := &catalog.Repo{DB: db}
	ctx := context.Background()

	catID := uuid.NewString()
	slug := "cat-" + catID
	highID := uuid.NewString()
	lowID := uuid.NewString()
	raterA := uuid.NewString()
	raterB := uuid.NewString()

	exec := func(q string, args ...any) {
		t.Helper()
		_, err := db.Exec(ctx, q, args...)
		require.NoError(t, err)
	}
	exec(`INSERT INTO categories(id, name, slug, category_type) VALUES ($1, $2, $3, $4)`,
		catID, slug, slug, "type-"+catID)
	exec(`INSERT INTO products(id, category_id, name, slug, price, stock) VALUES ($1, $2, $3, $4, $5, $6)`,
		highID, catID, "Opera Cake", "opera-"+highID, decimal.NewFromInt(80), 3)
	exec(`INSERT INTO products(id, category_id, name, slug, price, stock) VALUES ($1, $2, $3, $4, $5, $6)`,
		lowID, catID, "Plain Bun", "bun-"+lowID, decimal.NewFromInt(10), 3)
	exec(`INSERT INTO users(id, email) VALUES ($1, $2)`, raterA, raterA+"@test.local")
	exec(`INSERT INTO users(id, email) VALUES ($1, $2)`, raterB, raterB+"@test.local")
	exec(`INSERT INTO reviews(id, product_id, user_id, rating, title, comment) VALUES ($1, $2, $3, 5, 'great', 'great')`,
		uuid.NewString(), highID, raterA)
	exec(`INSERT INTO reviews(id, product_id, user_id, rating, title, comment) VALUES ($1, $2, $3, 2, 'meh', 'meh')`,
		uuid.NewString(), lowID, raterB)

	t.Cleanup(func() {
		_, _ = db.Exec(ctx, `DELETE FROM users WHERE id IN ($1, $2)`, raterA, raterB)
		_, _ = db.Exec(ctx, `DELETE FROM products WHERE id IN ($1, $2)`, highID, lowID)
		_, _ = db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, catID)
	})

	got, err := repo.ListProducts(ctx, catalog.Filter{CategorySlug: slug, Sort: "rating"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Opera Cake", got[0].Name)
	assert.Equal(t, "Plain Bun", got[1].Name)
}
