package returns

// Status represents the lifecycle state of a return request (RMA)
type Status string

const (
	StatusRequested Status = "requested"
	StatusApproved  Status = "approved"
	StatusPickedUp  Status = "picked_up"
	StatusReceived  Status = "received"
	StatusRejected  Status = "rejected"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusApproved, StatusPickedUp, StatusReceived, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusReceived || s == StatusRejected
}

// IsOpen reports whether the return still holds quantity against its order
func (s Status) IsOpen() bool {
	return s == StatusRequested || s == StatusApproved || s == StatusPickedUp
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusRequested:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusPickedUp || target == StatusReceived
	case StatusPickedUp:
		return target == StatusReceived
	case StatusReceived, StatusRejected:
		return false
	}
	return false
}

// RefundMethod is how the customer asked to be refunded
type RefundMethod string

const (
	RefundMethodOriginal      RefundMethod = "original"
	RefundMethodWallet        RefundMethod = "wallet"
	RefundMethodCODAdjustment RefundMethod = "cod_adjustment"
)

func (m RefundMethod) IsValid() bool {
	switch m {
	case RefundMethodOriginal, RefundMethodWallet, RefundMethodCODAdjustment:
		return true
	}
	return false
}

// RefundStatus tracks settlement of the refund
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
)

// Condition is the physical condition of a returned item
type Condition string

const (
	ConditionSealed  Condition = "sealed"
	ConditionOpened  Condition = "opened"
	ConditionDamaged Condition = "damaged"
)

func (c Condition) IsValid() bool {
	switch c {
	case ConditionSealed, ConditionOpened, ConditionDamaged:
		return true
	}
	return false
}

// Restockable reports whether the item may re-enter sellable stock
func (c Condition) Restockable() bool {
	return c != ConditionDamaged
}

// Type classifies who initiated the return; it is part of the RMA number.
type Type string

const (
	// TypeLogistics is raised by the carrier or warehouse (failed delivery, refused parcel)
	TypeLogistics Type = "LOG"
	// TypeReturn is a regular customer return
	TypeReturn Type = "RET"
	// TypeCRM is opened by customer support on the customer's behalf
	TypeCRM Type = "CRM"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeLogistics, TypeReturn, TypeCRM:
		return true
	}
	return false
}
