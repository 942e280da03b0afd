package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-backend/internal/errx"
)

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id, name, description, price, stock_count, category, image_url, created_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockCount,
		&p.Category, &p.ImageURL, &p.CreatedAt)
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, &errx.NotFoundError{Entity: "product", ID: id}
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock_count, category)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		p.Name, p.Description, p.Price, p.StockCount, p.Category,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update applies only the fields present in params; COALESCE keeps the rest.
func (r *Repo) Update(ctx context.Context, id int64, params UpdateParams) (Product, error) {
	var p Product
	err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price       = COALESCE($4, price),
			stock_count = COALESCE($5, stock_count),
			category    = COALESCE($6, category)
		WHERE id=$1
		RETURNING `+productColumns,
		id, params.Name, params.Description, params.Price, params.StockCount, params.Category), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, &errx.NotFoundError{Entity: "product", ID: id}
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

func (r *Repo) SetImageURL(ctx context.Context, id int64, url string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET image_url=$2 WHERE id=$1`, id, url)
	if err != nil {
		return fmt.Errorf("set image for product %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return &errx.NotFoundError{Entity: "product", ID: id}
	}
	return nil
}

// Delete is unconditional; association rows of historical orders keep their
// product_id and simply stop joining.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return &errx.NotFoundError{Entity: "product", ID: id}
	}
	return nil
}
