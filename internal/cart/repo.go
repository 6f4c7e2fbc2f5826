package cart

import (
	"context"

	"github.com/dangminhtuanan/storefront/internal/types/cart"
)

type CartRepository interface {
	GetCart(ctx context.Context, userID int64) ([]cart.Item, error)
	ReplaceCart(ctx context.Context, userID int64, items []cart.Item) error
	ClearCart(ctx context.Context, userID int64) error
}
