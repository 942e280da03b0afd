package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"shop-backend/internal/errx"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, status, paid, payment_method,
	customer_name, customer_email, address, city, country, postal_code, phone, address_type, created_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(&o.ID, &o.Status, &o.Paid, &o.PaymentMethod,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Address, &o.Customer.City,
		&o.Customer.Country, &o.Customer.PostalCode, &o.Customer.Phone, &o.Customer.AddressType,
		&o.CreatedAt)
}

// CreateOrderTx runs the whole check-then-deduct sequence in one transaction.
// Product rows are locked FOR UPDATE in ascending id order so concurrent
// orders over the same products cannot deadlock or observe a half-deducted
// state. Any shortage rejects the entire order; nothing is committed.
func (r *Repo) CreateOrderTx(ctx context.Context, method PaymentMethod, cust Customer, items []ItemInput) (View, []DepletedProduct, error) {
	sorted := make([]ItemInput, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return View{}, nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type locked struct {
		name  string
		price decimal.Decimal
		stock int
	}
	products := make(map[int64]locked, len(sorted))
	var shortages []errx.Shortage

	for _, it := range sorted {
		var p locked
		err := tx.QueryRow(ctx,
			`SELECT name, price, stock_count FROM products WHERE id=$1 FOR UPDATE`,
			it.ProductID).Scan(&p.name, &p.price, &p.stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, nil, &errx.NotFoundError{Entity: "product", ID: it.ProductID}
		}
		if err != nil {
			return View{}, nil, fmt.Errorf("lock product %d: %w", it.ProductID, err)
		}
		products[it.ProductID] = p
		if it.Quantity > p.stock {
			shortages = append(shortages, errx.Shortage{
				ProductID: it.ProductID, Name: p.name,
				Requested: it.Quantity, Available: p.stock,
			})
		}
	}
	if len(shortages) > 0 {
		return View{}, nil, &errx.InsufficientStockError{Shortages: shortages}
	}

	var o Order
	o.Status, o.Paid, o.PaymentMethod, o.Customer = StatusPending, PaidNo, method, cust
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (status, paid, payment_method,
			customer_name, customer_email, address, city, country, postal_code, phone, address_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at`,
		o.Status, o.Paid, o.PaymentMethod,
		cust.Name, cust.Email, cust.Address, cust.City, cust.Country,
		cust.PostalCode, cust.Phone, cust.AddressType,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return View{}, nil, fmt.Errorf("insert order: %w", err)
	}

	total := decimal.Zero
	lines := make([]Line, 0, len(items))
	var depleted []DepletedProduct

	for _, it := range items {
		p := products[it.ProductID]
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_products (order_id, product_id, quantity)
			VALUES ($1,$2,$3)`, o.ID, it.ProductID, it.Quantity); err != nil {
			return View{}, nil, fmt.Errorf("insert order line: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock_count = stock_count - $2 WHERE id=$1`,
			it.ProductID, it.Quantity); err != nil {
			return View{}, nil, fmt.Errorf("deduct stock for product %d: %w", it.ProductID, err)
		}
		sub := p.price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(sub)
		lines = append(lines, Line{
			ProductID: it.ProductID, Name: p.name, UnitPrice: p.price,
			Quantity: it.Quantity, Subtotal: sub,
		})
		if p.stock-it.Quantity == 0 {
			depleted = append(depleted, DepletedProduct{ProductID: it.ProductID, Name: p.name})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return View{}, nil, fmt.Errorf("commit: %w", err)
	}
	return View{Order: o, Lines: lines, Total: total}, depleted, nil
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (View, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return View{}, &errx.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return View{}, fmt.Errorf("get order %d: %w", id, err)
	}

	lines, total, err := r.orderLines(ctx, id)
	if err != nil {
		return View{}, err
	}
	return View{Order: o, Lines: lines, Total: total}, nil
}

// orderLines joins the association against products. Products deleted since
// the order was placed simply drop out of the projection.
func (r *Repo) orderLines(ctx context.Context, orderID int64) ([]Line, decimal.Decimal, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.name, p.price, op.quantity
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = $1
		ORDER BY p.id`, orderID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("order %d lines: %w", orderID, err)
	}
	defer rows.Close()

	lines := []Line{}
	total := decimal.Zero
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Name, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, decimal.Zero, err
		}
		l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(l.Subtotal)
		lines = append(lines, l)
	}
	return lines, total, rows.Err()
}

func (r *Repo) ListOrders(ctx context.Context) ([]View, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		views = append(views, View{Order: o})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range views {
		lines, total, err := r.orderLines(ctx, views[i].ID)
		if err != nil {
			return nil, err
		}
		views[i].Lines, views[i].Total = lines, total
	}
	return views, nil
}

// UpdateOrderTx applies a status and/or paid change under a row lock so the
// lifecycle rules are checked against the value being replaced.
func (r *Repo) UpdateOrderTx(ctx context.Context, id int64, newStatus *Status, newPaid *Paid) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o Order
	err = scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, &errx.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return Order{}, fmt.Errorf("lock order %d: %w", id, err)
	}

	if err := ValidateUpdate(o, newStatus, newPaid); err != nil {
		return Order{}, err
	}
	if newStatus != nil {
		o.Status = *newStatus
	}
	if newPaid != nil {
		o.Paid = *newPaid
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, paid=$3 WHERE id=$1`, id, o.Status, o.Paid); err != nil {
		return Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

// DeleteOrderTx removes a Pending order and gives its quantities back to
// stock in the same transaction. Non-Pending orders are refused.
func (r *Repo) DeleteOrderTx(ctx context.Context, id int64) ([]ItemInput, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &errx.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("lock order %d: %w", id, err)
	}
	if status != StatusPending {
		return nil, &errx.InvalidStateError{Msg: "order can only be deleted while Pending"}
	}

	rows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM order_products
		WHERE order_id=$1 ORDER BY product_id`, id)
	if err != nil {
		return nil, fmt.Errorf("order %d associations: %w", id, err)
	}
	var restored []ItemInput
	for rows.Next() {
		var it ItemInput
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			rows.Close()
			return nil, err
		}
		restored = append(restored, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, it := range restored {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock_count = stock_count + $2 WHERE id=$1`,
			it.ProductID, it.Quantity); err != nil {
			return nil, fmt.Errorf("restore stock for product %d: %w", it.ProductID, err)
		}
	}

	// association rows go with the order (ON DELETE CASCADE)
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id); err != nil {
		return nil, fmt.Errorf("delete order %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return restored, nil
}
