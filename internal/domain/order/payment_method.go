package order

import "fmt"

// PaymentMethod is how the order was originally paid
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodCODPartial PaymentMethod = "cod_partial"
)

// Settlement is the refund path a payment method implies
type Settlement int

const (
	// SettlementProvider refunds go back through the payment provider
	SettlementProvider Settlement = iota + 1
	// SettlementCash refunds cannot be pushed electronically; cash was collected on delivery
	SettlementCash
)

// ParsePaymentMethod validates a stored or inbound payment method string
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if _, err := m.Settlement(); err != nil {
		return "", err
	}
	return m, nil
}

// Settlement maps the method to its refund path. Adding a method without
// extending this switch surfaces as an error on first use.
func (m PaymentMethod) Settlement() (Settlement, error) {
	switch m {
	case PaymentMethodCard, PaymentMethodWallet:
		return SettlementProvider, nil
	case PaymentMethodCOD, PaymentMethodCODPartial:
		return SettlementCash, nil
	default:
		return 0, fmt.Errorf("unknown payment method %q", string(m))
	}
}
