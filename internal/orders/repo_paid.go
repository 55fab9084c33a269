package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// MarkPaid records a confirmed payment exactly once. The whole effect -
// payment status flip, confirmation timestamp, stock decrement per item,
// cart clear - runs in a single transaction guarded by a compare-and-set on
// payment_status, so a redelivered webhook event finds the guard already
// taken and returns ErrAlreadyPaid without touching anything.
func (r *Repo) MarkPaid(ctx context.Context, orderID, paymentRef string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// CAS: pending -> paid. Zero rows means either an unknown order or a
	// duplicate delivery; tell them apart below.
	row := tx.QueryRow(ctx, `
		UPDATE orders SET
			payment_status = 'paid',
			payment_id = $2,
			status = 'confirmed',
			confirmed_at = now(),
			updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'
		RETURNING `+orderColumns, orderID, paymentRef)
	o, err := scanOrder(row)
	if errors.Is(err, ErrNotFound) {
		var exists bool
		if err2 := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err2 != nil {
			return nil, err2
		}
		if exists {
			return nil, ErrAlreadyPaid
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItemsTx(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	// Commit stock: the only point where inventory is actually consumed.
	// Lock each product row first so concurrent confirmations for the same
	// product serialise. Cart-time checks were advisory, so clamp at zero
	// instead of failing a paid order.
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		var stock int
		if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, *it.ProductID).Scan(&stock); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = GREATEST(stock - $2, 0), updated_at = now()
			WHERE id = $1`, *it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}

	// The originating cart has served its purpose.
	if o.UserID != "" {
		if _, err := tx.Exec(ctx, `
			DELETE FROM cart_items ci
			USING carts c
			WHERE ci.cart_id = c.id AND c.user_id = $1`, o.UserID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) loadItemsTx(ctx context.Context, tx pgx.Tx, orderID string) ([]OrderItem, error) {
	rows, err := tx.Query(ctx, `
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
