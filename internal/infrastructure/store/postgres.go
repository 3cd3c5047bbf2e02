package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/fairway-commerce/internal/auth"
	"github.com/example/fairway-commerce/internal/domain/audit"
	"github.com/example/fairway-commerce/internal/domain/order"
	"github.com/example/fairway-commerce/internal/domain/product"
	"github.com/example/fairway-commerce/internal/domain/user"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// PoolConfig holds connection pool limits.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(ctx context.Context, connStr string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if pool.MaxOpenConns <= 0 {
		pool.MaxOpenConns = 25
	}
	if pool.MaxIdleConns <= 0 {
		pool.MaxIdleConns = 5
	}
	if pool.ConnMaxLifetime <= 0 {
		pool.ConnMaxLifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	return db, nil
}

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PostgresStore implements TxRunner, ReadStore and user.Repository.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken with
// SELECT ... FOR UPDATE serialize concurrent writers of the same order.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &pgTx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("commit: %w", ctxErr)
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const orderColumns = `
	o.id, o.order_number, o.user_id, u.name, u.email, o.status, o.total_amount,
	o.recipient_name, o.phone, o.address1, o.address2, o.postal_code,
	o.memo, o.payment_method, o.payment_metadata, o.created_at, o.updated_at`

func loadOrder(ctx context.Context, q queryer, orderID string, forUpdate bool) (*order.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF o`
	}

	var (
		o        order.Order
		metadata []byte
	)
	err := q.QueryRowContext(ctx, query, orderID).Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.User.Name, &o.User.Email, &o.Status, &o.TotalAmount,
		&o.ShippingAddress.RecipientName, &o.ShippingAddress.Phone, &o.ShippingAddress.Address1,
		&o.ShippingAddress.Address2, &o.ShippingAddress.PostalCode,
		&o.Memo, &o.PaymentMethod, &metadata, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order %s: %w", orderID, err)
	}
	o.User.ID = o.UserID

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &o.PaymentMetadata); err != nil {
			return nil, fmt.Errorf("decode payment metadata of order %s: %w", orderID, err)
		}
	}

	items, err := loadItems(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func loadItems(ctx context.Context, q queryer, orderID string) ([]order.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT i.id, i.product_id, p.name, p.brand_id, i.quantity, i.unit_price
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.position ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select items of order %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]order.OrderItem, 0)
	for rows.Next() {
		var it order.OrderItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.BrandID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetOrder loads an order with its items and owner.
func (s *PostgresStore) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	return loadOrder(ctx, s.db, orderID, false)
}

// ListOrderAuditLogs returns the trail of an order, newest first: entries
// on the order itself and entries on other entities that reference it, such
// as inventory restored by its cancellation.
func (s *PostgresStore) ListOrderAuditLogs(ctx context.Context, orderID string, limit int) ([]audit.Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, actor_role, action, entity_type, entity_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE (entity_type = $1 AND entity_id = $2)
		   OR metadata->>'`+audit.MetaOrderID+`' = $2
		ORDER BY created_at DESC, entity_type ASC
		LIMIT $3`,
		audit.EntityOrder, orderID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]audit.Entry, 0)
	for rows.Next() {
		var (
			e        audit.Entry
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.EntityType, &e.EntityID,
			&metadata, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode audit metadata %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetUserByEmail looks up a user for sign-in.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var (
		u       user.User
		role    string
		brandID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, role, brand_id, is_active, created_at, updated_at
		FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &brandID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Role = auth.Role(role)
	u.BrandID = brandID.String
	return &u, nil
}

// CreateUser inserts a new user.
func (s *PostgresStore) CreateUser(ctx context.Context, u *user.User) error {
	var brandID sql.NullString
	if u.BrandID != "" {
		brandID = sql.NullString{String: u.BrandID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, brand_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), brandID, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// pgTx implements Tx on a *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetOrderForUpdate(ctx context.Context, orderID string) (*order.Order, error) {
	return loadOrder(ctx, t.tx, orderID, true)
}

func (t *pgTx) GetProductForUpdate(ctx context.Context, productID string) (*product.Product, error) {
	var p product.Product
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, brand_id, name, inventory, status, updated_at
		FROM products WHERE id = $1
		FOR UPDATE`,
		productID,
	).Scan(&p.ID, &p.BrandID, &p.Name, &p.Inventory, &p.Status, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product %s: %w", productID, err)
	}
	return &p, nil
}

func (t *pgTx) UpdateProduct(ctx context.Context, p product.Product) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products SET inventory = $2, status = $3, updated_at = $4
		WHERE id = $1`,
		p.ID, p.Inventory, string(p.Status), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	return expectOneRow(res, ErrProductNotFound)
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, o *order.Order) error {
	metadata, err := json.Marshal(o.PaymentMetadata)
	if err != nil {
		return fmt.Errorf("encode payment metadata: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, payment_metadata = $3, updated_at = $4
		WHERE id = $1`,
		o.ID, string(o.Status), metadata, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}

func (t *pgTx) AppendAudit(ctx context.Context, e audit.Entry) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, entity_type, entity_id, metadata, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.ActorID, e.ActorRole, e.Action, e.EntityType, e.EntityID, metadata, e.IPAddress, e.UserAgent, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
