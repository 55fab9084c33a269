//go:build integration

package orders_test

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

	"github.com/goodluckbakery/shop/internal/orders"
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

func testRepo(db *pgxpool.Pool) *orders.Repo {
	return &orders.Repo{DB: db, Pricing: orders.Pricing{
		TaxRate: decimal.NewFromFloat(0.05),
		ShippingCosts: map[string]decimal.Decimal{
			"standard": decimal.NewFromInt(49),
			"express":  decimal.NewFromInt(99),
			"pickup":   decimal.Zero,
		},
		DefaultShippingCost: decimal.NewFromInt(49),
	}}
}

type seeded struct {
	userID   string
	email    string
	productA string
	productB string
}

// seedCheckout sets up a user whose cart holds two cake-shop products:
// two of A at 100 (stock 10) and one of B at 50 (stock 5).
func seedCheckout(t *testing.T, db *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()
	s := seeded{
		userID:   uuid.NewString(),
		productA: uuid.NewString(),
		productB: uuid.NewString(),
	}
	s.email = s.userID + "@test.local"
	catID := uuid.NewString()
	cartID := uuid.NewString()

	exec := func(q string, args ...any) {
		t.Helper()
		_, err := db.Exec(ctx, q, args...)
		require.NoError(t, err)
	}
	exec(`INSERT INTO users(id, email) VALUES ($1, $2)`, s.userID, s.email)
	exec(`INSERT INTO categories(id, name, slug, category_type) VALUES ($1, $2, $3, $4)`,
		catID, "cat-"+catID, "cat-"+catID, "type-"+catID)
	exec(`INSERT INTO products(id, category_id, name, slug, price, stock) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.productA, catID, "Chocolate Cake", "cake-"+s.productA, decimal.NewFromInt(100), 10)
	exec(`INSERT INTO products(id, category_id, name, slug, price, stock) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.productB, catID, "Croissant", "croissant-"+s.productB, decimal.NewFromInt(50), 5)
	exec(`INSERT INTO carts(id, user_id) VALUES ($1, $2)`, cartID, s.userID)
	exec(`INSERT INTO cart_items(id, cart_id, product_id, quantity) VALUES ($1, $2, $3, 2)`,
		uuid.NewString(), cartID, s.productA)
	exec(`INSERT INTO cart_items(id, cart_id, product_id, quantity) VALUES ($1, $2, $3, 1)`,
		uuid.NewString(), cartID, s.productB)

	t.Cleanup(func() {
		_, _ = db.Exec(ctx, `DELETE FROM orders WHERE customer_email = $1`, s.email)
		_, _ = db.Exec(ctx, `DELETE FROM users WHERE id = $1`, s.userID)
		_, _ = db.Exec(ctx, `DELETE FROM products WHERE id IN ($1, $2)`, s.productA, s.productB)
		_, _ = db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, catID)
	})
	return s
}

func checkoutInput(email string) orders.CheckoutInput {
	return orders.CheckoutInput{
		CustomerName:       "Pat Test",
		CustomerEmail:      email,
		CustomerPhone:      "555-0100",
		ShippingAddress:    "1 Main St",
		ShippingCity:       "Springfield",
		ShippingState:      "IL",
		ShippingPostalCode: "62701",
		ShippingMethod:     "express",
	}
}

func stockOf(t *testing.T, db *pgxpool.Pool, productID string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(context.Background(),
		`SELECT stock FROM products WHERE id = $1`, productID).Scan(&n))
	return n
}

func cartSize(t *testing.T, db *pgxpool.Pool, userID string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(context.Background(), `
		SELECT count(*) FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE c.user_id = $1`, userID).Scan(&n))
	return n
}

func TestCreateFromCartComputesTotals(t *testing.T) {
	db := testDB(t)
	s := seedCheckout(t, db)
	repo := testRepo(db)
	ctx := context.Background()

	o, err := repo.CreateFromCart(ctx, s.userID, checkoutInput(s.email))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(o.OrderNumber, "GLB-"))
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, orders.PaymentPending, o.PaymentStatus)
	assert.Len(t, o.Items, 2)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(250)))
	assert.True(t, o.ShippingCost.Equal(decimal.NewFromInt(99)))
	assert.True(t, o.Tax.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("361.50")))

	// creating the order leaves the cart and the stock alone
	assert.Equal(t, 2, cartSize(t, db, s.userID))
	assert.Equal(t, 10, stockOf(t, db, s.productA))
}

func TestCreateFromCartEmptyCart(t *testing.T) {
	db := testDB(t)
	repo := testRepo(db)
	ctx := context.Background()

	userID := uuid.NewString()
	email := userID + "@test.local"
	_, err := db.Exec(ctx, `INSERT INTO users(id, email) VALUES ($1, $2)`, userID, email)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID) })

	_, err = repo.CreateFromCart(ctx, userID, checkoutInput(email))
	assert.ErrorIs(t, err, orders.ErrEmptyCart)
}

func TestMarkPaidIdempotent(t *testing.T) {
	db := testDB(t)
	s := seedCheckout(t, db)
	repo := testRepo(db)
	ctx := context.Background()

	o, err := repo.CreateFromCart(ctx, s.userID, checkoutInput(s.email))
	require.NoError(t, err)

	paid, err := repo.MarkPaid(ctx, o.ID, "pi_test_1")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusConfirmed, paid.Status)
	assert.Equal(t, orders.PaymentPaid, paid.PaymentStatus)
	require.NotNil(t, paid.ConfirmedAt)
	firstConfirmed := *paid.ConfirmedAt

	// stock committed once per item, cart cleared
	assert.Equal(t, 8, stockOf(t, db, s.productA))
	assert.Equal(t, 4, stockOf(t, db, s.productB))
	assert.Equal(t, 0, cartSize(t, db, s.userID))

	// redelivery: refused, nothing decremented or re-stamped
	_, err = repo.MarkPaid(ctx, o.ID, "pi_test_1")
	assert.ErrorIs(t, err, orders.ErrAlreadyPaid)
	assert.Equal(t, 8, stockOf(t, db, s.productA))
	assert.Equal(t, 4, stockOf(t, db, s.productB))

	got, err := repo.GetByNumber(ctx, s.userID, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
	require.NotNil(t, got.ConfirmedAt)
	assert.True(t, got.ConfirmedAt.Equal(firstConfirmed))
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	db := testDB(t)
	repo := testRepo(db)

	_, err := repo.MarkPaid(context.Background(), uuid.NewString(), "pi_test_2")
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestOrderItemSnapshotSurvivesProductDelete(t *testing.T) {
	db := testDB(t)
	s := seedCheckout(t, db)
	repo := testRepo(db)
	ctx := context.Background()

	o, err := repo.CreateFromCart(ctx, s.userID, checkoutInput(s.email))
	require.NoError(t, err)

	_, err = db.Exec(ctx, `DELETE FROM products WHERE id = $1`, s.productA)
	require.NoError(t, err)

	got, err := repo.GetByNumber(ctx, s.userID, o.OrderNumber)
	require.NoError(t, err)

	var snap *orders.OrderItem
	for i := range got.Items {
		if got.Items[i].ProductName == "Chocolate Cake" {
			snap = &got.Items[i]
		}
	}
	require.NotNil(t, snap)
	assert.Nil(t, snap.ProductID)
	assert.Equal(t, 2, snap.Quantity)
	assert.True(t, snap.Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, snap.Subtotal.Equal(decimal.NewFromInt(200)))
}
