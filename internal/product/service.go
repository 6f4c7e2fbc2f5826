package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dangminhtuanan/storefront/internal/types/product"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Service struct {
	repo ProductRepository
}

func NewService(r ProductRepository) *Service {
	return &Service{repo: r}
}

func (s *Service) Get(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.repo.FindProductByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *Service) List(ctx context.Context) ([]product.Product, error) {
	return s.repo.ListProducts(ctx)
}

// Reserve списывает остаток под позицию заказа.
func (s *Service) Reserve(ctx context.Context, productID int64, qty int32) error {
	ok, err := s.repo.DecrementStock(ctx, productID, qty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return err
	}
	if !ok {
		return ErrInsufficientStock
	}
	return nil
}

// Release возвращает остаток при отмене заказа.
func (s *Service) Release(ctx context.Context, productID int64, qty int32) error {
	return s.repo.RestoreStock(ctx, productID, qty)
}
