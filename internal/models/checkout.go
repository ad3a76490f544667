package models

// CheckoutKind hangi satın alma akışının kullanıldığını belirler.
// Plan aboneliği ve tek seferlik token paketi aynı modülden geçer,
// sadece parametreleri farklı.
type CheckoutKind string

const (
	CheckoutKindPlan   CheckoutKind = "plan"
	CheckoutKindTokens CheckoutKind = "tokens"
)

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type RetryPaymentResponse struct {
	Status   string `json:"status"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message,omitempty"`
}
