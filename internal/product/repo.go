package product

import (
	"context"

	"github.com/dangminhtuanan/storefront/internal/types/product"
)

type ProductRepository interface {
	FindProductByID(ctx context.Context, id int64) (*product.Product, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
	DecrementStock(ctx context.Context, productID int64, qty int32) (bool, error)
	RestoreStock(ctx context.Context, productID int64, qty int32) error
}
