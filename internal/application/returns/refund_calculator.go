package returns

import (
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RefundCalculator computes per-line and total refunds. Every intermediate
// amount is rounded to cents half-up so totals never drift across lines.
type RefundCalculator struct{}

// LineRefund is unitPrice x returnQty / orderedQty, less return shipping when
// the customer pays it, floored at zero. A line that no longer matches an
// order item refunds nothing.
func (RefundCalculator) LineRefund(o *order.Order, line returns.RequestedLine, shipping *returns.ReturnShippingSnapshot) decimal.Decimal {
	item, ok := o.ItemByID(line.OrderItemID)
	if !ok {
		item, ok = o.ItemFor(line.VariantID, &line.OriginID)
	}
	if !ok || item.Quantity <= 0 {
		return decimal.Zero
	}

	gross := valueobject.RoundMoney(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	refund := valueobject.RoundMoney(gross.Div(decimal.NewFromInt(int64(item.Quantity))))
	if shipping != nil && shipping.CustomerPays() {
		refund = valueobject.RoundMoney(refund.Sub(valueobject.RoundMoney(shipping.Amount)))
	}
	return valueobject.NonNegative(refund)
}

// Requested prices lines that have no shipping snapshot yet
func (c RefundCalculator) Requested(o *order.Order, lines []returns.RequestedLine) ([]returns.RequestedLine, decimal.Decimal) {
	out := make([]returns.RequestedLine, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		out[i] = l.WithRefund(c.LineRefund(o, l, nil))
		total = total.Add(out[i].RefundAmount)
	}
	return out, total
}

// Approved prices lines including their frozen shipping snapshots
func (c RefundCalculator) Approved(o *order.Order, lines []returns.ApprovedLine) ([]returns.ApprovedLine, decimal.Decimal) {
	out := make([]returns.ApprovedLine, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		shipping := l.Shipping
		out[i] = l.WithRefund(c.LineRefund(o, l.RequestedLine, &shipping))
		total = total.Add(out[i].RefundAmount)
	}
	return out, total
}
