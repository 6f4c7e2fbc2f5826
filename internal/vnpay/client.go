package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	version     = "2.1.0"
	commandPay  = "pay"
	codeSuccess = "00"
	dateLayout  = "20060102150405"

	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
)

// Client собирает платёжные ссылки и проверяет подпись колбэков шлюза.
// Сетевых вызовов нет: браузер сам уходит на шлюз и возвращается обратно.
type Client struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	// Now подменяется в тестах.
	Now func() time.Time
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// BuildPaymentURL строит подписанный redirect URL для заказа.
// Сумма передаётся в донгах и умножается на 100 по конвенции шлюза.
func (c *Client) BuildPaymentURL(orderID string, amount int64, clientIP string) string {
	params := url.Values{}
	params.Set("vnp_Version", version)
	params.Set("vnp_Command", commandPay)
	params.Set("vnp_TmnCode", c.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", orderID)
	params.Set("vnp_OrderInfo", "Thanh toan don hang "+orderID)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_IpAddr", clientIP)
	params.Set("vnp_CreateDate", c.now().Format(dateLayout))
	params.Set("vnp_ReturnUrl", c.ReturnURL)

	// Encode сортирует ключи — это и есть каноническая строка для подписи.
	query := params.Encode()
	return c.PayURL + "?" + query + "&" + paramSecureHash + "=" + c.sign(query)
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// ReturnResult — разобранный и проверенный колбэк шлюза.
// Сверка суммы и статуса заказа — дело реконсилера, не клиента.
type ReturnResult struct {
	IsVerified   bool
	IsSuccess    bool
	TxnRef       string
	Amount       int64
	ResponseCode string
	BankCode     string
	Message      string
}

// VerifyReturn проверяет подпись параметров, вернувшихся от шлюза.
func (c *Client) VerifyReturn(q url.Values) ReturnResult {
	got := q.Get(paramSecureHash)
	if got == "" {
		return ReturnResult{Message: "missing signature"}
	}

	params := url.Values{}
	for k, vs := range q {
		if k == paramSecureHash || k == paramSecureHashType {
			continue
		}
		params[k] = vs
	}
	want := c.sign(params.Encode())
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(got))) {
		return ReturnResult{Message: "signature mismatch"}
	}

	txnRef := q.Get("vnp_TxnRef")
	amountStr := q.Get("vnp_Amount")
	if txnRef == "" || amountStr == "" {
		return ReturnResult{Message: "missing required parameters"}
	}
	rawAmount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil || rawAmount < 0 || rawAmount%100 != 0 {
		return ReturnResult{Message: "malformed amount"}
	}

	res := ReturnResult{
		IsVerified:   true,
		TxnRef:       txnRef,
		Amount:       rawAmount / 100,
		ResponseCode: q.Get("vnp_ResponseCode"),
		BankCode:     q.Get("vnp_BankCode"),
	}
	if res.ResponseCode != codeSuccess {
		res.Message = "payment was not completed"
		return res
	}
	res.IsSuccess = true
	res.Message = "payment confirmed"
	return res
}
