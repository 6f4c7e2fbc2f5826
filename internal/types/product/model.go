package product

type Product struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Price      int64  `db:"price" json:"price"`
	Stock      int64  `db:"stock" json:"stock"`
	CategoryID int64  `db:"category_id" json:"category_id"`
}
