package returns

import (
	"context"

	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/inventory"
	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/domain/store"
)

// TransactionScope runs a state transition as one unit of work.
// If fn returns an error every write made through the UnitOfWork is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// UnitOfWork hands out repositories bound to the current transaction.
// It is passed explicitly into every step of a transition; no step reaches
// for a repository outside it.
type UnitOfWork interface {
	Returns() returns.Repository
	Orders() order.Repository
	Stores() store.Repository
	Inventory() inventory.Repository
	Ledger() ledger.Repository
	Invoices() finance.InvoiceRepository
	CreditNotes() finance.CreditNoteRepository
	ShippingRules() returns.ShippingRuleRepository
	Sequences() shared.SequenceAllocator
	Outbox() shared.OutboxRepository

	// Savepoint runs fn in a nested transaction. An error from fn rolls back
	// only the writes fn made; the enclosing unit of work stays usable.
	Savepoint(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// Repositories groups the collaborators of a NoOpTransactionScope
type Repositories struct {
	Returns       returns.Repository
	Orders        order.Repository
	Stores        store.Repository
	Inventory     inventory.Repository
	Ledger        ledger.Repository
	Invoices      finance.InvoiceRepository
	CreditNotes   finance.CreditNoteRepository
	ShippingRules returns.ShippingRuleRepository
	Sequences     shared.SequenceAllocator
	Outbox        shared.OutboxRepository
}

// NoOpTransactionScope runs the function against plain repositories without
// a transaction. Used by unit tests.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(uow UnitOfWork) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Savepoint(_ context.Context, fn func(uow UnitOfWork) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Returns() returns.Repository                   { return s.repos.Returns }
func (s *NoOpTransactionScope) Orders() order.Repository                      { return s.repos.Orders }
func (s *NoOpTransactionScope) Stores() store.Repository                      { return s.repos.Stores }
func (s *NoOpTransactionScope) Inventory() inventory.Repository               { return s.repos.Inventory }
func (s *NoOpTransactionScope) Ledger() ledger.Repository                     { return s.repos.Ledger }
func (s *NoOpTransactionScope) Invoices() finance.InvoiceRepository           { return s.repos.Invoices }
func (s *NoOpTransactionScope) CreditNotes() finance.CreditNoteRepository     { return s.repos.CreditNotes }
func (s *NoOpTransactionScope) ShippingRules() returns.ShippingRuleRepository { return s.repos.ShippingRules }
func (s *NoOpTransactionScope) Sequences() shared.SequenceAllocator           { return s.repos.Sequences }
func (s *NoOpTransactionScope) Outbox() shared.OutboxRepository               { return s.repos.Outbox }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ UnitOfWork = (*NoOpTransactionScope)(nil)
