package store

import (
	"context"
	"errors"

	"github.com/example/fairway-commerce/internal/domain/audit"
	"github.com/example/fairway-commerce/internal/domain/order"
	"github.com/example/fairway-commerce/internal/domain/product"
	"github.com/example/fairway-commerce/internal/domain/user"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = product.ErrProductNotFound
	ErrUserNotFound    = user.ErrUserNotFound
)

// Tx is the set of reads and writes available inside one transaction.
// The *ForUpdate reads lock the returned row until the transaction ends.
type Tx interface {
	GetOrderForUpdate(ctx context.Context, orderID string) (*order.Order, error)
	GetProductForUpdate(ctx context.Context, productID string) (*product.Product, error)
	UpdateProduct(ctx context.Context, p product.Product) error
	UpdateOrderStatus(ctx context.Context, o *order.Order) error
	AppendAudit(ctx context.Context, e audit.Entry) error
}

// TxRunner runs fn inside a transaction. The transaction commits only when
// fn returns nil; any error, panic or expired ctx rolls it back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// ReadStore serves non-transactional reads.
type ReadStore interface {
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	ListOrderAuditLogs(ctx context.Context, orderID string, limit int) ([]audit.Entry, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
}
