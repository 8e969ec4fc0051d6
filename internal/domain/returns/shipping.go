package returns

import (
	"context"
	"time"

	"github.com/erp/returns/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payer is the party that bears the cost of return shipping
type Payer string

const (
	PayerCustomer Payer = "customer"
	PayerSupplier Payer = "supplier"
	PayerReseller Payer = "reseller"
	PayerPlatform Payer = "platform"
)

func (p Payer) IsValid() bool {
	switch p {
	case PayerCustomer, PayerSupplier, PayerReseller, PayerPlatform:
		return true
	}
	return false
}

// RuleScope is the granularity a shipping rule was matched at
type RuleScope string

const (
	RuleScopeSKU      RuleScope = "sku"
	RuleScopeCategory RuleScope = "category"
	RuleScopeStore    RuleScope = "store"
	RuleScopeNone     RuleScope = "none"
)

// ReturnShippingSnapshot is the return-shipping cost frozen onto a line at
// approval. It is never recomputed, so later rule edits cannot change the
// economics of a return that is already in flight.
type ReturnShippingSnapshot struct {
	Payer     Payer           `json:"payer"`
	Amount    decimal.Decimal `json:"amount"`
	RuleID    *uuid.UUID      `json:"rule_id,omitempty"`
	RuleScope RuleScope       `json:"rule_scope"`
	FrozenAt  time.Time       `json:"frozen_at"`
}

// DefaultShippingSnapshot is used when no rule matches: the platform pays nothing.
func DefaultShippingSnapshot(now time.Time) ReturnShippingSnapshot {
	return ReturnShippingSnapshot{
		Payer:     PayerPlatform,
		Amount:    decimal.Zero,
		RuleScope: RuleScopeNone,
		FrozenAt:  now,
	}
}

// CustomerPays reports whether the customer bears the return shipping
func (s ReturnShippingSnapshot) CustomerPays() bool {
	return s.Payer == PayerCustomer
}

// CostMode selects how a rule prices return shipping
type CostMode string

const (
	// CostModeFlat charges Amount once per line
	CostModeFlat CostMode = "flat"
	// CostModePerItem charges Amount for every returned unit
	CostModePerItem CostMode = "per_item"
	// CostModeOriginalShippingPct charges Percent of the order's original
	// shipping charge, prorated by the line's share of ordered units
	CostModeOriginalShippingPct CostMode = "original_shipping_pct"
)

func (m CostMode) IsValid() bool {
	switch m {
	case CostModeFlat, CostModePerItem, CostModeOriginalShippingPct:
		return true
	}
	return false
}

// ShippingRule decides who pays for return shipping and how much.
// Exactly one of SKU or CategoryID is set for sku and category scoped rules;
// store scoped rules set neither.
type ShippingRule struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	Scope          RuleScope
	SKU            string
	CategoryID     *uuid.UUID
	Payer          Payer
	Mode           CostMode
	Amount         decimal.Decimal
	Percent        decimal.Decimal
	ZoneSurcharges map[string]decimal.Decimal
	// OriginSurcharges add to the cost of lines going back to that origin
	OriginSurcharges map[uuid.UUID]decimal.Decimal
	Active           bool
	UpdatedAt        time.Time
}

// CostInput carries everything a rule needs to price one return line
type CostInput struct {
	Quantity              int
	OrderTotalQuantity    int
	OriginalShippingTotal decimal.Decimal
	Address               valueobject.Address
	// OriginID is the supply point the line is returned to
	OriginID uuid.UUID
}

// Cost prices return shipping for one line. The result is rounded and never negative.
func (r ShippingRule) Cost(in CostInput) decimal.Decimal {
	var base decimal.Decimal
	switch r.Mode {
	case CostModeFlat:
		base = r.Amount
	case CostModePerItem:
		base = r.Amount.Mul(decimal.NewFromInt(int64(in.Quantity)))
	case CostModeOriginalShippingPct:
		pct := r.Percent.Div(decimal.NewFromInt(100))
		base = valueobject.Prorate(
			in.OriginalShippingTotal.Mul(pct),
			decimal.NewFromInt(int64(in.Quantity)),
			decimal.NewFromInt(int64(in.OrderTotalQuantity)),
		)
	default:
		base = decimal.Zero
	}
	base = valueobject.RoundMoney(base).Add(r.surcharge(in.Address)).Add(r.originSurcharge(in.OriginID))
	return valueobject.NonNegative(valueobject.RoundMoney(base))
}

// surcharge looks up the zone surcharge, most specific zone first
func (r ShippingRule) surcharge(addr valueobject.Address) decimal.Decimal {
	if len(r.ZoneSurcharges) == 0 {
		return decimal.Zero
	}
	zone := addr.Zone()
	if s, ok := r.ZoneSurcharges[zone]; ok {
		return valueobject.RoundMoney(s)
	}
	country := (valueobject.Address{Country: addr.Country}).Zone()
	if s, ok := r.ZoneSurcharges[country]; ok {
		return valueobject.RoundMoney(s)
	}
	return decimal.Zero
}

func (r ShippingRule) originSurcharge(originID uuid.UUID) decimal.Decimal {
	if s, ok := r.OriginSurcharges[originID]; ok {
		return valueobject.RoundMoney(s)
	}
	return decimal.Zero
}

// Snapshot freezes the rule's decision for a line
func (r ShippingRule) Snapshot(amount decimal.Decimal, now time.Time) ReturnShippingSnapshot {
	id := r.ID
	return ReturnShippingSnapshot{
		Payer:     r.Payer,
		Amount:    amount,
		RuleID:    &id,
		RuleScope: r.Scope,
		FrozenAt:  now,
	}
}

// ShippingRuleRepository reads the return-shipping rules of a store
type ShippingRuleRepository interface {
	// FindActiveForStore returns every active rule of the store, any scope
	FindActiveForStore(ctx context.Context, storeID uuid.UUID) ([]ShippingRule, error)
}
