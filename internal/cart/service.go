package cart

import (
	"context"
	"errors"
	"time"

	"github.com/dangminhtuanan/storefront/internal/types/cart"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

type Service struct {
	repo CartRepository
}

func NewService(r CartRepository) *Service {
	return &Service{repo: r}
}

func (s *Service) Get(ctx context.Context, userID int64) ([]cart.Item, error) {
	return s.repo.GetCart(ctx, userID)
}

// Replace перезаписывает корзину целиком.
func (s *Service) Replace(ctx context.Context, userID int64, items []cart.Item) error {
	now := time.Now().UTC()
	for i := range items {
		if items[i].Quantity <= 0 {
			return ErrInvalidQuantity
		}
		items[i].UserID = userID
		items[i].UpdatedAt = now
	}
	return s.repo.ReplaceCart(ctx, userID, items)
}

// Clear опустошает корзину; пустая корзина — no-op.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.repo.ClearCart(ctx, userID)
}
