package dto

type PaymentOrderResponseDto struct {
	OrderId  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Key      string `json:"key"`
}

type PaymentVerifyRequestDto struct {
	OrderId   string `json:"order_id"`
	PaymentId string `json:"payment_id"`
	Signature string `json:"signature"`
}
