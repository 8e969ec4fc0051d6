package persistence

import (
	"context"

	appreturns "github.com/erp/returns/internal/application/returns"
	"github.com/erp/returns/internal/domain/finance"
	"github.com/erp/returns/internal/domain/inventory"
	"github.com/erp/returns/internal/domain/ledger"
	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/domain/store"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed out by the unit of work shares the transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, committing only if fn succeeds.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(uow appreturns.UnitOfWork) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormUnitOfWork{tx: tx})
	})
}

type gormUnitOfWork struct {
	tx *gorm.DB
}

// Savepoint nests a GORM transaction, which GORM implements with SAVEPOINT
// and ROLLBACK TO SAVEPOINT on the enclosing transaction.
func (u *gormUnitOfWork) Savepoint(ctx context.Context, fn func(uow appreturns.UnitOfWork) error) error {
	return u.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormUnitOfWork{tx: tx})
	})
}

func (u *gormUnitOfWork) Returns() returns.Repository        { return NewGormReturnRequestRepository(u.tx) }
func (u *gormUnitOfWork) Orders() order.Repository           { return NewGormOrderRepository(u.tx) }
func (u *gormUnitOfWork) Stores() store.Repository           { return NewGormStoreRepository(u.tx) }
func (u *gormUnitOfWork) Inventory() inventory.Repository    { return NewGormStockRepository(u.tx) }
func (u *gormUnitOfWork) Ledger() ledger.Repository          { return NewGormLedgerRepository(u.tx) }
func (u *gormUnitOfWork) Invoices() finance.InvoiceRepository { return NewGormInvoiceRepository(u.tx) }
func (u *gormUnitOfWork) CreditNotes() finance.CreditNoteRepository {
	return NewGormCreditNoteRepository(u.tx)
}
func (u *gormUnitOfWork) ShippingRules() returns.ShippingRuleRepository {
	return NewGormShippingRuleRepository(u.tx)
}
func (u *gormUnitOfWork) Sequences() shared.SequenceAllocator { return NewGormSequenceAllocator(u.tx) }
func (u *gormUnitOfWork) Outbox() shared.OutboxRepository     { return NewGormOutboxRepository(u.tx) }

var (
	_ appreturns.TransactionScope = (*GormTransactionScope)(nil)
	_ appreturns.UnitOfWork       = (*gormUnitOfWork)(nil)
)
