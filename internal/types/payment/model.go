package payment

import "time"

// Payment — запись об успешном подтверждении оплаты от шлюза.
// TxnRef уникален: повторный колбэк с тем же референсом не создаёт вторую запись.
type Payment struct {
	ID           int64     `db:"id" json:"-"`
	TxnRef       string    `db:"txn_ref" json:"txn_ref"`
	OrderID      string    `db:"order_id" json:"order_id"`
	Amount       int64     `db:"amount" json:"amount"`
	ResponseCode string    `db:"response_code" json:"response_code"`
	BankCode     string    `db:"bank_code" json:"bank_code,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
