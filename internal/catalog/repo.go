package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("catalog: not found")
	ErrAlreadyReviewed = errors.New("catalog: product already reviewed by this user")
)

type Repo struct{ DB *pgxpool.Pool }

// Filter narrows the product listing. Zero values mean "no filter".
type Filter struct {
	CategorySlug string
	Query        string
	Sort         string // name | price_low | price_high | newest | rating
}

var sortColumns = map[string]string{
	"name":       "p.name ASC",
	"price_low":  "p.price ASC",
	"price_high": "p.price DESC",
	"newest":     "p.created_at DESC",
	"rating":     "(SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.product_id = p.id AND r.is_active) DESC",
}

const productColumns = `p.id, p.category_id, p.name, p.slug, p.description, p.short_description,
	p.price, p.sale_price, p.stock, p.is_active, p.is_featured,
	p.weight, p.ingredients, p.allergens, p.views, p.created_at, p.updated_at`

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, slug, description, category_type, is_active, display_order, created_at, updated_at
		FROM categories
		WHERE is_active
		ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CategoryType,
			&c.IsActive, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, slug, description, category_type, is_active, display_order, created_at, updated_at
		FROM categories
		WHERE slug = $1 AND is_active`, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CategoryType,
			&c.IsActive, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	q := `SELECT ` + productColumns + ` FROM products p WHERE p.is_active`
	args := []any{}

	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		q += ` AND p.category_id = (SELECT id FROM categories WHERE slug = $1 AND is_active)`
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := strconv.Itoa(len(args))
		q += ` AND (p.name ILIKE $` + n + ` OR p.description ILIKE $` + n +
			` OR p.short_description ILIKE $` + n + `)`
	}

	order, ok := sortColumns[f.Sort]
	if !ok {
		order = sortColumns["name"]
	}
	q += ` ORDER BY ` + order

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repo) ListFeatured(ctx context.Context, limit int) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+productColumns+` FROM products p
		WHERE p.is_active AND p.is_featured
		ORDER BY p.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repo) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	return r.getProduct(ctx, `p.slug = $1`, slug)
}

// RecordView bumps the view counter for a detail-page visit.
func (r *Repo) RecordView(ctx context.Context, id string) {
	_, _ = r.DB.Exec(ctx, `UPDATE products SET views = views + 1 WHERE id = $1`, id)
}

func (r *Repo) GetProduct(ctx context.Context, id string) (*Product, error) {
	return r.getProduct(ctx, `p.id = $1`, id)
}

func (r *Repo) getProduct(ctx context.Context, where string, arg any) (*Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.is_active AND `+where, arg)
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription,
		&p.Price, &p.SalePrice, &p.Stock, &p.IsActive, &p.IsFeatured,
		&p.Weight, &p.Ingredients, &p.Allergens, &p.Views, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) RelatedProducts(ctx context.Context, categoryID, excludeID string, limit int) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+productColumns+` FROM products p
		WHERE p.is_active AND p.category_id = $1 AND p.id <> $2
		LIMIT $3`, categoryID, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repo) CreateReview(ctx context.Context, rev *Review) error {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO reviews(id, product_id, user_id, rating, title, comment)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Title, rev.Comment)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyReviewed
	}
	return err
}

func (r *Repo) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, user_id, rating, title, comment, is_active, created_at
		FROM reviews
		WHERE product_id = $1 AND is_active
		ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating,
			&rev.Title, &rev.Comment, &rev.IsActive, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription,
			&p.Price, &p.SalePrice, &p.Stock, &p.IsActive, &p.IsFeatured,
			&p.Weight, &p.Ingredients, &p.Allergens, &p.Views, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
