package vnpay

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return &Client{
		TmnCode:    "TEST01",
		HashSecret: "testsecret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:3000/payment/return",
		Now: func() time.Time {
			return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
		},
	}
}

// signedReturn собирает параметры возврата с корректной подписью.
func signedReturn(c *Client, overrides map[string]string) url.Values {
	params := url.Values{}
	params.Set("vnp_TmnCode", c.TmnCode)
	params.Set("vnp_TxnRef", "order-1")
	params.Set("vnp_Amount", "50000000")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TransactionStatus", "00")
	params.Set("vnp_BankCode", "NCB")
	params.Set("vnp_PayDate", "20240315103500")
	for k, v := range overrides {
		params.Set(k, v)
	}
	params.Set(paramSecureHash, c.sign(params.Encode()))
	return params
}

func TestBuildPaymentURL(t *testing.T) {
	c := testClient()
	raw := c.BuildPaymentURL("order-1", 500000, "10.0.0.1")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "TEST01", q.Get("vnp_TmnCode"))
	assert.Equal(t, "50000000", q.Get("vnp_Amount"), "amount must be in gateway minor units")
	assert.Equal(t, "order-1", q.Get("vnp_TxnRef"))
	assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
	assert.Equal(t, "10.0.0.1", q.Get("vnp_IpAddr"))
	assert.Equal(t, "20240315103000", q.Get("vnp_CreateDate"))
	assert.Equal(t, c.ReturnURL, q.Get("vnp_ReturnUrl"))
	assert.NotEmpty(t, q.Get(paramSecureHash))

	// подпись исходящего URL корректна: пересчитываем вручную
	sig := q.Get(paramSecureHash)
	q.Del(paramSecureHash)
	assert.Equal(t, sig, c.sign(q.Encode()))
}

func TestVerifyReturnSuccess(t *testing.T) {
	c := testClient()
	res := c.VerifyReturn(signedReturn(c, nil))

	assert.True(t, res.IsVerified)
	assert.True(t, res.IsSuccess)
	assert.Equal(t, "order-1", res.TxnRef)
	assert.Equal(t, int64(500000), res.Amount)
	assert.Equal(t, "00", res.ResponseCode)
	assert.Equal(t, "NCB", res.BankCode)
}

func TestVerifyReturnDeclined(t *testing.T) {
	c := testClient()
	res := c.VerifyReturn(signedReturn(c, map[string]string{"vnp_ResponseCode": "24"}))

	assert.True(t, res.IsVerified, "declined payment still has a valid signature")
	assert.False(t, res.IsSuccess)
}

func TestVerifyReturnSignatureTamper(t *testing.T) {
	c := testClient()
	params := signedReturn(c, nil)
	sig := params.Get(paramSecureHash)

	// порча любого одного символа подписи валит проверку
	for i := 0; i < len(sig); i++ {
		flipped := 'f'
		if sig[i] == 'f' {
			flipped = '0'
		}
		tampered := sig[:i] + string(flipped) + sig[i+1:]
		params.Set(paramSecureHash, tampered)
		res := c.VerifyReturn(params)
		assert.False(t, res.IsVerified, "tampered signature at position %d must fail", i)
	}
}

func TestVerifyReturnParamTamper(t *testing.T) {
	c := testClient()
	params := signedReturn(c, nil)
	params.Set("vnp_Amount", "40000000") // подпись осталась от старой суммы

	res := c.VerifyReturn(params)
	assert.False(t, res.IsVerified)
}

func TestVerifyReturnMissingSignature(t *testing.T) {
	c := testClient()
	params := signedReturn(c, nil)
	params.Del(paramSecureHash)

	res := c.VerifyReturn(params)
	assert.False(t, res.IsVerified)
	assert.Equal(t, "missing signature", res.Message)
}

func TestVerifyReturnMissingParams(t *testing.T) {
	c := testClient()

	params := url.Values{}
	params.Set("vnp_ResponseCode", "00")
	params.Set(paramSecureHash, c.sign(params.Encode()))

	res := c.VerifyReturn(params)
	assert.False(t, res.IsVerified)
}

func TestVerifyReturnMalformedAmount(t *testing.T) {
	c := testClient()
	for _, amount := range []string{"abc", "-100", "12345"} {
		params := url.Values{}
		params.Set("vnp_TxnRef", "order-1")
		params.Set("vnp_Amount", amount)
		params.Set("vnp_ResponseCode", "00")
		params.Set(paramSecureHash, c.sign(params.Encode()))

		res := c.VerifyReturn(params)
		assert.False(t, res.IsVerified, "amount %q must be rejected", amount)
	}
}

func TestVerifyReturnIgnoresHashTypeParam(t *testing.T) {
	c := testClient()
	params := signedReturn(c, nil)
	// шлюз может прислать тип хэша отдельным параметром, он не подписывается
	params.Set(paramSecureHashType, "HmacSHA512")

	res := c.VerifyReturn(params)
	assert.True(t, res.IsVerified)
}
