package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dangminhtuanan/storefront/internal/types/cart"
	"github.com/dangminhtuanan/storefront/internal/types/order"
	"github.com/dangminhtuanan/storefront/internal/types/payment"
	"github.com/dangminhtuanan/storefront/internal/types/product"
	"github.com/dangminhtuanan/storefront/internal/types/user"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &PostgresStorage{db: db}

	// проверяем, что БД жива
	if err := s.db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	// создаём таблицы
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'customer',
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            price BIGINT NOT NULL,
            stock BIGINT NOT NULL DEFAULT 0,
            category_id BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS cart_items (
            user_id INT NOT NULL REFERENCES users(id),
            product_id BIGINT NOT NULL,
            quantity INT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (user_id, product_id)
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            customer_id INT REFERENCES users(id),
            guest_email TEXT NOT NULL DEFAULT '',
            addr_name TEXT NOT NULL DEFAULT '',
            addr_phone TEXT NOT NULL DEFAULT '',
            addr_street TEXT NOT NULL DEFAULT '',
            addr_district TEXT NOT NULL DEFAULT '',
            addr_city TEXT NOT NULL DEFAULT '',
            addr_raw TEXT NOT NULL DEFAULT '',
            total BIGINT NOT NULL,
            payment_method TEXT NOT NULL,
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            paid_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id SERIAL PRIMARY KEY,
            order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            product_id BIGINT NOT NULL,
            quantity INT NOT NULL,
            unit_price BIGINT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id SERIAL PRIMARY KEY,
            txn_ref TEXT UNIQUE NOT NULL,
            order_id TEXT NOT NULL,
            amount BIGINT NOT NULL,
            response_code TEXT NOT NULL,
            bank_code TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS status_audit (
            id SERIAL PRIMARY KEY,
            order_id TEXT NOT NULL,
            from_status TEXT NOT NULL,
            to_status TEXT NOT NULL,
            actor_id INT NOT NULL,
            reason TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) Create(ctx context.Context, u *user.User) error {
	q := `INSERT INTO users (login,password_hash,role,created_at) VALUES($1,$2,$3,$4) RETURNING id`
	return s.db.QueryRowContext(ctx, q, u.Login, u.PasswordHash, u.Role, u.CreatedAt).Scan(&u.ID)
}

func (s *PostgresStorage) FindByLogin(ctx context.Context, login string) (*user.User, error) {
	u := &user.User{}
	q := `SELECT id,login,password_hash,role,created_at FROM users WHERE login=$1`
	if err := s.db.QueryRowContext(ctx, q, login).
		Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *PostgresStorage) FindProductByID(ctx context.Context, id int64) (*product.Product, error) {
	p := &product.Product{}
	q := `SELECT id,name,price,stock,category_id FROM products WHERE id=$1`
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CategoryID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStorage) ListProducts(ctx context.Context) ([]product.Product, error) {
	const q = `SELECT id,name,price,stock,category_id FROM products ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CategoryID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) DecrementStock(ctx context.Context, productID int64, qty int32) (bool, error) {
	const q = `UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2`
	res, err := s.db.ExecContext(ctx, q, productID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStorage) RestoreStock(ctx context.Context, productID int64, qty int32) error {
	const q = `UPDATE products SET stock = stock + $2 WHERE id=$1`
	_, err := s.db.ExecContext(ctx, q, productID, qty)
	return err
}

func (s *PostgresStorage) GetCart(ctx context.Context, userID int64) ([]cart.Item, error) {
	const q = `
        SELECT user_id, product_id, quantity, updated_at
        FROM cart_items WHERE user_id=$1 ORDER BY product_id`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cart.Item
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.UserID, &it.ProductID, &it.Quantity, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) ReplaceCart(ctx context.Context, userID int64, items []cart.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID); err != nil {
		return err
	}
	const q = `INSERT INTO cart_items (user_id,product_id,quantity,updated_at) VALUES ($1,$2,$3,$4)`
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, q, it.UserID, it.ProductID, it.Quantity, it.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStorage) ClearCart(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

func (s *PostgresStorage) CreateOrder(ctx context.Context, o *order.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const qOrder = `
        INSERT INTO orders (id, customer_id, guest_email,
            addr_name, addr_phone, addr_street, addr_district, addr_city, addr_raw,
            total, payment_method, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	if _, err := tx.ExecContext(ctx, qOrder,
		o.ID, o.CustomerID, o.GuestEmail,
		o.Address.Name, o.Address.Phone, o.Address.Street, o.Address.District, o.Address.City, o.Address.Raw,
		o.Total, o.Method, o.Status, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return err
	}

	const qItem = `
        INSERT INTO order_items (order_id, product_id, quantity, unit_price)
        VALUES ($1,$2,$3,$4) RETURNING id`
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if err := tx.QueryRowContext(ctx, qItem, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice).Scan(&it.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const orderColumns = `
    id, customer_id, guest_email,
    addr_name, addr_phone, addr_street, addr_district, addr_city, addr_raw,
    total, payment_method, status, created_at, updated_at, paid_at`

func scanOrder(row interface{ Scan(...any) error }) (*order.Order, error) {
	var o order.Order
	var customerID sql.NullInt64
	var paidAt sql.NullTime
	err := row.Scan(
		&o.ID, &customerID, &o.GuestEmail,
		&o.Address.Name, &o.Address.Phone, &o.Address.Street, &o.Address.District, &o.Address.City, &o.Address.Raw,
		&o.Total, &o.Method, &o.Status, &o.CreatedAt, &o.UpdatedAt, &paidAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		o.CustomerID = &customerID.Int64
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return &o, nil
}

func (s *PostgresStorage) loadItems(ctx context.Context, orderID string) ([]order.LineItem, error) {
	const q = `
        SELECT id, order_id, product_id, quantity, unit_price
        FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.LineItem
	for rows.Next() {
		var it order.LineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) FindOrderByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	if o.Items, err = s.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PostgresStorage) listOrders(ctx context.Context, q string, args ...any) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = s.loadItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStorage) ListOrders(ctx context.Context) ([]order.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (s *PostgresStorage) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
}

func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, id string, from, to order.OrderStatus, paidAt *time.Time) (bool, error) {
	const q = `
        UPDATE orders
        SET status=$3, updated_at=$4, paid_at=COALESCE($5, paid_at)
        WHERE id=$1 AND status=$2`
	res, err := s.db.ExecContext(ctx, q, id, from, to, time.Now().UTC(), paidAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStorage) OverwriteOrderStatus(ctx context.Context, id string, to order.OrderStatus) error {
	const q = `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`
	_, err := s.db.ExecContext(ctx, q, id, to, time.Now().UTC())
	return err
}

func (s *PostgresStorage) UpdateOrderAddress(ctx context.Context, id string, addr order.Address) error {
	const q = `
        UPDATE orders
        SET addr_name=$2, addr_phone=$3, addr_street=$4, addr_district=$5, addr_city=$6, addr_raw=$7,
            updated_at=$8
        WHERE id=$1`
	_, err := s.db.ExecContext(ctx, q, id,
		addr.Name, addr.Phone, addr.Street, addr.District, addr.City, addr.Raw, time.Now().UTC())
	return err
}

func (s *PostgresStorage) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStorage) ListStalePending(ctx context.Context, method order.PaymentMethod, olderThan time.Time) ([]order.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
         WHERE status=$1 AND payment_method=$2 AND created_at < $3
         ORDER BY created_at`,
		order.StatusPending, method, olderThan)
}

func (s *PostgresStorage) CreateStatusAudit(ctx context.Context, a *order.StatusAudit) error {
	const q = `
        INSERT INTO status_audit (order_id, from_status, to_status, actor_id, reason, created_at)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	return s.db.QueryRowContext(ctx, q,
		a.OrderID, a.From, a.To, a.ActorID, a.Reason, a.CreatedAt).Scan(&a.ID)
}

func (s *PostgresStorage) CreatePayment(ctx context.Context, p *payment.Payment) error {
	const q = `
        INSERT INTO payments (txn_ref, order_id, amount, response_code, bank_code, created_at)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	return s.db.QueryRowContext(ctx, q,
		p.TxnRef, p.OrderID, p.Amount, p.ResponseCode, p.BankCode, p.CreatedAt).Scan(&p.ID)
}

func (s *PostgresStorage) FindPaymentByTxnRef(ctx context.Context, txnRef string) (*payment.Payment, error) {
	p := &payment.Payment{}
	const q = `
        SELECT id, txn_ref, order_id, amount, response_code, bank_code, created_at
        FROM payments WHERE txn_ref=$1`
	err := s.db.QueryRowContext(ctx, q, txnRef).
		Scan(&p.ID, &p.TxnRef, &p.OrderID, &p.Amount, &p.ResponseCode, &p.BankCode, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
