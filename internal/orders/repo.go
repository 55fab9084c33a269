package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct {
	DB      *pgxpool.Pool
	Pricing Pricing
}

// CheckoutInput carries the validated checkout form fields.
type CheckoutInput struct {
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	ShippingAddress    string
	ShippingCity       string
	ShippingState      string
	ShippingPostalCode string
	ShippingMethod     string
	Notes              string
}

const orderColumns = `id, order_number, user_id, status, payment_status, payment_id, payment_method,
	customer_name, customer_email, customer_phone,
	shipping_address, shipping_city, shipping_state, shipping_postal_code, shipping_method, shipping_cost,
	subtotal, tax, discount, total, notes,
	created_at, updated_at, confirmed_at, shipped_at, delivered_at`

// CreateFromCart snapshots the user's cart into a new pending order inside
// one transaction: cart lines are re-read with their product rows locked,
// each line is priced exactly once, and order plus items are persisted
// together. The cart itself is left alone here - it is cleared when payment
// is confirmed. Retries on an order-number collision.
func (r *Repo) CreateFromCart(ctx context.Context, userID string, in CheckoutInput) (*Order, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		o, err := r.createFromCartOnce(ctx, userID, in)
		if isUniqueViolation(err) {
			lastErr = err
			continue
		}
		return o, err
	}
	return nil, lastErr
}

func (r *Repo) createFromCartOnce(ctx context.Context, userID string, in CheckoutInput) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Snapshot the cart: one read, one price per line. FOR UPDATE on the
	// product rows pins prices for the duration of the transaction.
	rows, err := tx.Query(ctx, `
		SELECT ci.product_id, p.name, p.slug, ci.quantity,
		       CASE WHEN p.sale_price IS NOT NULL AND p.sale_price < p.price
		            THEN p.sale_price ELSE p.price END AS unit_price
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1
		ORDER BY ci.added_at
		FOR UPDATE OF ci, p`, userID)
	if err != nil {
		return nil, err
	}

	var items []OrderItem
	subtotal := decimal.Zero
	for rows.Next() {
		var it OrderItem
		var productID string
		if err := rows.Scan(&productID, &it.ProductName, &it.ProductSlug, &it.Quantity, &it.Price); err != nil {
			rows.Close()
			return nil, err
		}
		it.ProductID = &productID
		it.Subtotal = it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(it.Subtotal)
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	totals := r.Pricing.Compute(subtotal, in.ShippingMethod)
	now := time.Now().UTC()

	o := &Order{
		ID:                 uuid.NewString(),
		OrderNumber:        NewOrderNumber(now),
		UserID:             userID,
		Status:             StatusPending,
		PaymentStatus:      PaymentPending,
		PaymentMethod:      "stripe",
		CustomerName:       in.CustomerName,
		CustomerEmail:      in.CustomerEmail,
		CustomerPhone:      in.CustomerPhone,
		ShippingAddress:    in.ShippingAddress,
		ShippingCity:       in.ShippingCity,
		ShippingState:      in.ShippingState,
		ShippingPostalCode: in.ShippingPostalCode,
		ShippingMethod:     in.ShippingMethod,
		ShippingCost:       totals.ShippingCost,
		Subtotal:           totals.Subtotal,
		Tax:                totals.Tax,
		Discount:           decimal.Zero,
		Total:              totals.Total,
		Notes:              in.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, user_id, status, payment_status, payment_method,
			customer_name, customer_email, customer_phone,
			shipping_address, shipping_city, shipping_state, shipping_postal_code,
			shipping_method, shipping_cost, subtotal, tax, discount, total, notes,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.ShippingAddress, o.ShippingCity, o.ShippingState, o.ShippingPostalCode,
		o.ShippingMethod, o.ShippingCost, o.Subtotal, o.Tax, o.Discount, o.Total, o.Notes,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].OrderID = o.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, product_name, product_slug, quantity, price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			items[i].ID, o.ID, items[i].ProductID, items[i].ProductName, items[i].ProductSlug,
			items[i].Quantity, items[i].Price, items[i].Subtotal); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// Delete removes an order and its items. Rollback path for a failed
// payment-intent creation: a pending order with no way to pay must not
// linger.
func (r *Repo) Delete(ctx context.Context, orderID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdvanceStatus is the administrative override: any status may be set from
// any other. The confirmed/shipped/delivered timestamps are stamped the
// first time their status is reached and never overwritten.
func (r *Repo) AdvanceStatus(ctx context.Context, orderNumber string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET
			status = $2,
			updated_at = now(),
			confirmed_at = CASE WHEN $2 = 'confirmed' AND confirmed_at IS NULL THEN now() ELSE confirmed_at END,
			shipped_at   = CASE WHEN $2 = 'shipped'   AND shipped_at   IS NULL THEN now() ELSE shipped_at   END,
			delivered_at = CASE WHEN $2 = 'delivered' AND delivered_at IS NULL THEN now() ELSE delivered_at END
		WHERE order_number = $1`, orderNumber, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) GetByNumber(ctx context.Context, userID, orderNumber string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE order_number = $1 AND user_id = $2`, orderNumber, userID)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) loadItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, product_name, product_slug, quantity, price, subtotal
		FROM order_items
		WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.ProductSlug, &it.Quantity, &it.Price, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var userID *string // user rows may be deleted out from under old orders
	err := row.Scan(&o.ID, &o.OrderNumber, &userID, &o.Status, &o.PaymentStatus, &o.PaymentID, &o.PaymentMethod,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.ShippingCity, &o.ShippingState, &o.ShippingPostalCode,
		&o.ShippingMethod, &o.ShippingCost,
		&o.Subtotal, &o.Tax, &o.Discount, &o.Total, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.ConfirmedAt, &o.ShippedAt, &o.DeliveredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if userID != nil {
		o.UserID = *userID
	}
	return &o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
