package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("order not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	Record(ctx context.Context, o PlacedOrder) error
	Get(ctx context.Context, userID, orderID string) (PlacedOrder, error)
	ListByUser(ctx context.Context, userID string) ([]PlacedOrder, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const insertOrderSQL = `
INSERT INTO checkout_orders (id, user_id, status, customer_name, delivery_address, phone_number,
    payment_method, subtotal, shipping_fee, total, correlation_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const insertLineSQL = `
INSERT INTO checkout_order_lines (order_id, item_id, product_id, name, quantity, unit_price, line_total)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *PostgresRepository) Record(ctx context.Context, o PlacedOrder) (err error) {
	if o.ID == "" || o.UserID == "" {
		return errors.New("order id and user id are required")
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.Status, o.CustomerName, o.DeliveryAddress, o.PhoneNumber,
		o.PaymentMethod, o.Totals.Subtotal, o.Totals.ShippingFee, o.Totals.Total, o.CorrelationID, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, ln := range o.Lines {
		_, err = tx.Exec(ctx, insertLineSQL,
			o.ID, ln.ItemID, ln.ProductID, ln.Name, ln.Quantity, ln.UnitPrice, ln.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const selectOrderSQL = `
SELECT id, user_id, status, customer_name, delivery_address, phone_number, payment_method,
    subtotal, shipping_fee, total, correlation_id, created_at
FROM checkout_orders`

const selectLinesSQL = `
SELECT order_id, item_id, product_id, name, quantity, unit_price, line_total
FROM checkout_order_lines WHERE order_id = ANY($1) ORDER BY order_id, item_id`

func scanOrder(row pgx.Row) (PlacedOrder, error) {
	var o PlacedOrder
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.CustomerName, &o.DeliveryAddress, &o.PhoneNumber,
		&o.PaymentMethod, &o.Totals.Subtotal, &o.Totals.ShippingFee, &o.Totals.Total, &o.CorrelationID, &o.CreatedAt)
	return o, err
}

// Get only returns orders owned by userID.
func (r *PostgresRepository) Get(ctx context.Context, userID, orderID string) (PlacedOrder, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrderSQL+` WHERE id = $1 AND user_id = $2`, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PlacedOrder{}, ErrNotFound
		}
		return PlacedOrder{}, fmt.Errorf("select order: %w", err)
	}

	orders := []PlacedOrder{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return PlacedOrder{}, err
	}
	return orders[0], nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]PlacedOrder, error) {
	rows, err := r.pool.Query(ctx, selectOrderSQL+` WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var out []PlacedOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachLines loads the lines of every order with one query.
func (r *PostgresRepository) attachLines(ctx context.Context, orders []PlacedOrder) error {
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx, selectLinesSQL, ids)
	if err != nil {
		return fmt.Errorf("select order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var ln Line
		if err := rows.Scan(&orderID, &ln.ItemID, &ln.ProductID, &ln.Name, &ln.Quantity, &ln.UnitPrice, &ln.LineTotal); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Lines = append(orders[i].Lines, ln)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}
