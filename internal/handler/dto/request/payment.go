package request

import "parking-reservation/internal/usecase/commands"

type PaymentCallbackRequest struct {
	IdempotencyKey string `json:"idempotencyKey" binding:"required,uuid"`
	Status         string `json:"status" binding:"required,oneof=succeeded failed"`
	Reference      string `json:"reference" binding:"max=64"`
	Reason         string `json:"reason" binding:"max=32"`
	AmountMinor    int64  `json:"amountMinor" binding:"gte=0"`
}

func (r *PaymentCallbackRequest) ToResult() (commands.PaymentResult, error) {
	return commands.NewPaymentResult(r.IdempotencyKey, r.Status, r.Reference, r.Reason, r.AmountMinor)
}
