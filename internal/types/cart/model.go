package cart

import "time"

type Item struct {
	UserID    int64     `db:"user_id" json:"-"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int32     `db:"quantity" json:"quantity"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}
