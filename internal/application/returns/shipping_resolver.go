package returns

import (
	"time"

	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"go.uber.org/zap"
)

// ShippingRuleResolver picks the return-shipping rule for a line and prices it.
// Resolution order is SKU, then category, then store-wide; the first scope
// with a match wins.
type ShippingRuleResolver struct {
	logger *zap.Logger
}

// NewShippingRuleResolver creates a resolver
func NewShippingRuleResolver(logger *zap.Logger) *ShippingRuleResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShippingRuleResolver{logger: logger}
}

// Match returns the rule that applies to the line, or false when none does
func (s *ShippingRuleResolver) Match(rules []returns.ShippingRule, o *order.Order, line returns.RequestedLine) (returns.ShippingRule, bool) {
	var categoryID string
	if item, ok := o.ItemByID(line.OrderItemID); ok && item.CategoryID != nil {
		categoryID = item.CategoryID.String()
	}

	for _, scope := range []returns.RuleScope{returns.RuleScopeSKU, returns.RuleScopeCategory, returns.RuleScopeStore} {
		var best *returns.ShippingRule
		for i := range rules {
			r := &rules[i]
			if !r.Active || r.StoreID != o.StoreID || r.Scope != scope {
				continue
			}
			switch scope {
			case returns.RuleScopeSKU:
				if r.SKU == "" || r.SKU != line.SKU {
					continue
				}
			case returns.RuleScopeCategory:
				if r.CategoryID == nil || categoryID == "" || r.CategoryID.String() != categoryID {
					continue
				}
			}
			// several rules at one scope: the most recently edited wins
			if best == nil || r.UpdatedAt.After(best.UpdatedAt) {
				best = r
			}
		}
		if best != nil {
			return *best, true
		}
	}
	return returns.ShippingRule{}, false
}

// Resolve freezes the return-shipping snapshot for one line. The cost uses the
// order's original shipping snapshot and address and the line's origin, never
// current rates.
func (s *ShippingRuleResolver) Resolve(rules []returns.ShippingRule, o *order.Order, line returns.RequestedLine, now time.Time) returns.ReturnShippingSnapshot {
	rule, ok := s.Match(rules, o, line)
	if !ok {
		return returns.DefaultShippingSnapshot(now)
	}
	amount := rule.Cost(returns.CostInput{
		Quantity:              line.Quantity,
		OrderTotalQuantity:    o.TotalQuantity(),
		OriginalShippingTotal: o.Shipping.Amount,
		Address:               o.ShippingAddress,
		OriginID:              line.OriginID,
	})
	s.logger.Debug("return shipping rule matched",
		zap.String("line_id", line.ID.String()),
		zap.String("rule_id", rule.ID.String()),
		zap.String("scope", string(rule.Scope)),
		zap.String("payer", string(rule.Payer)),
		zap.String("amount", amount.String()),
	)
	return rule.Snapshot(amount, now)
}
