package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goodluckbakery/shop/internal/catalog"
)

type Repo struct{ DB *pgxpool.Pool }

// GetOrCreate returns the user's cart with its items and product rows
// loaded, creating an empty cart on first access. Idempotent: the insert
// races benignly with concurrent requests for the same user thanks to the
// unique user_id constraint.
func (r *Repo) GetOrCreate(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := r.DB.QueryRow(ctx, `
		INSERT INTO carts(id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
		RETURNING id, user_id, created_at, updated_at`,
		uuid.NewString(), userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

func (r *Repo) loadItems(ctx context.Context, cartID string) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.added_at, ci.updated_at,
		       p.id, p.category_id, p.name, p.slug, p.description, p.short_description,
		       p.price, p.sale_price, p.stock, p.is_active, p.is_featured,
		       p.weight, p.ingredients, p.allergens, p.views, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at DESC`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var p catalog.Product
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.AddedAt, &it.UpdatedAt,
			&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription,
			&p.Price, &p.SalePrice, &p.Stock, &p.IsActive, &p.IsFeatured,
			&p.Weight, &p.Ingredients, &p.Allergens, &p.Views, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		it.Product = &p
		out = append(out, it)
	}
	return out, rows.Err()
}

// AddItem puts quantity of a product into the cart, summing with an existing
// line for the same product. The combined quantity is validated against the
// product's current stock before anything is written; on failure the line
// keeps its previous quantity. The stock check is advisory only - stock is
// committed at payment confirmation, not here.
func (r *Repo) AddItem(ctx context.Context, cartID string, product *catalog.Product, quantity int) error {
	if quantity < MinQuantity {
		return ErrInvalidQuantity
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing int
	err = tx.QueryRow(ctx, `
		SELECT quantity FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
		FOR UPDATE`, cartID, product.ID).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	combined := existing + quantity
	if err := ValidateQuantity(combined, product.Stock); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items(id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = $4, updated_at = now()`,
		uuid.NewString(), cartID, product.ID, combined)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateItem applies increase/decrease/remove to a cart line owned by the
// user. Increase at the stock cap and decrease at quantity 1 are no-ops
// surfaced as ErrMaxStock / ErrMinQuantity so the handler can warn without
// failing the request. Remove deletes the line immediately.
func (r *Repo) UpdateItem(ctx context.Context, userID, itemID string, action Action) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var quantity, stock int
	err = tx.QueryRow(ctx, `
		SELECT ci.quantity, p.stock
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1 AND c.user_id = $2
		FOR UPDATE OF ci`, itemID, userID).Scan(&quantity, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	switch action {
	case ActionIncrease:
		if quantity >= stock || quantity >= MaxQuantity {
			return ErrMaxStock
		}
		quantity++
	case ActionDecrease:
		if quantity <= MinQuantity {
			return ErrMinQuantity
		}
		quantity--
	case ActionRemove:
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
			return err
		}
		return tx.Commit(ctx)
	default:
		return ErrUnknownAction
	}

	if _, err := tx.Exec(ctx, `
		UPDATE cart_items SET quantity = $2, updated_at = now() WHERE id = $1`,
		itemID, quantity); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) RemoveItem(ctx context.Context, userID, itemID string) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2`, itemID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
