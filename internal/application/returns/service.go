package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/returns/internal/domain/order"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/domain/store"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Transition names reported to Metrics
const (
	ActionRequest = "request"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionPickup  = "pickup"
	ActionReceive = "receive"
)

// EventEncoder serializes domain events for the outbox
type EventEncoder interface {
	Serialize(event shared.DomainEvent) ([]byte, error)
}

// Config tunes the RMA service
type Config struct {
	// DefaultWindowDays applies to stores without a return window of their own
	DefaultWindowDays int
}

// RMAService drives the RMA lifecycle. Every transition runs in a single
// unit of work; events and audit rows are best-effort.
type RMAService struct {
	scope       TransactionScope
	eligibility *EligibilityValidator
	resolver    *ShippingRuleResolver
	calculator  RefundCalculator
	reversal    *InventoryReversal
	dispatcher  *RefundDispatcher
	ledger      *LedgerReversal
	creditNotes *CreditNoteIssuer

	encoder   EventEncoder
	publisher shared.EventPublisher
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewRMAService creates a new RMAService
func NewRMAService(scope TransactionScope, dispatcher *RefundDispatcher, cfg Config, logger *zap.Logger) *RMAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RMAService{
		scope:       scope,
		eligibility: NewEligibilityValidator(cfg.DefaultWindowDays),
		resolver:    NewShippingRuleResolver(logger),
		reversal:    NewInventoryReversal(logger),
		dispatcher:  dispatcher,
		ledger:      NewLedgerReversal(logger),
		creditNotes: NewCreditNoteIssuer(logger),
		metrics:     noopMetrics{},
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the in-process publisher events are handed to after commit
func (s *RMAService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetOutboxEncoder enables writing events to the outbox inside the transition
func (s *RMAService) SetOutboxEncoder(encoder EventEncoder) {
	s.encoder = encoder
}

// SetMetrics sets the metrics sink
func (s *RMAService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Request opens a new RMA in the requested state
func (s *RMAService) Request(ctx context.Context, in RequestInput) (resp *RMAResponse, err error) {
	start := s.now()
	defer func() { s.metrics.ObserveTransition(ActionRequest, err, time.Since(start)) }()

	if in.Type == "" {
		in.Type = returns.TypeReturn
	}
	if in.RefundMethod == "" {
		in.RefundMethod = returns.RefundMethodOriginal
	}

	var rma *returns.ReturnRequest
	err = s.scope.Execute(ctx, func(uow UnitOfWork) error {
		st, err := s.loadStore(ctx, uow, in.StoreID)
		if err != nil {
			return err
		}
		// the lock keeps a concurrent Request from counting the same open
		// returns and claiming the same units
		o, err := s.loadOrderForUpdate(ctx, uow, in.StoreID, in.OrderID)
		if err != nil {
			return err
		}
		if in.CustomerID != nil && !o.OwnedBy(*in.CustomerID) {
			return returns.ErrNotOwnedByCustomer
		}

		open, err := uow.Returns().FindOpenByOrder(ctx, in.StoreID, in.OrderID)
		if err != nil {
			return fmt.Errorf("load open returns: %w", err)
		}
		pending := make(map[uuid.UUID]int)
		for _, other := range open {
			for itemID, qty := range other.QuantityByItem() {
				pending[itemID] += qty
			}
		}

		now := s.now()
		lines, err := s.eligibility.Validate(EligibilityInput{
			Store:   st,
			Order:   o,
			Lines:   in.Lines,
			Pending: pending,
			Now:     now,
		})
		if err != nil {
			return err
		}
		lines, _ = s.calculator.Requested(o, lines)

		seq, err := uow.Sequences().Next(ctx, returns.SequenceScopeRMA, st.ID, now.Year())
		if err != nil {
			return fmt.Errorf("allocate RMA number: %w", err)
		}

		rma, err = returns.NewReturnRequest(returns.NewReturnRequestParams{
			StoreID:      in.StoreID,
			RMANumber:    returns.FormatRMANumber(st.Code, in.Type, now.Year(), seq),
			Type:         in.Type,
			OrderID:      in.OrderID,
			CustomerID:   in.CustomerID,
			RefundMethod: in.RefundMethod,
			RequestedBy:  in.ActorID,
			Lines:        lines,
		})
		if err != nil {
			return err
		}
		if err := uow.Returns().Create(ctx, rma); err != nil {
			return fmt.Errorf("save return request: %w", err)
		}
		s.recordEvents(ctx, uow, rma)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return requested",
		zap.String("rma_number", rma.RMANumber),
		zap.String("order_id", rma.OrderID.String()),
		zap.String("refund_amount", rma.RefundAmount.String()),
	)
	return s.afterCommit(ctx, rma), nil
}

// Approve freezes return shipping on every line and approves the RMA
func (s *RMAService) Approve(ctx context.Context, storeID, rmaID, approverID uuid.UUID) (resp *RMAResponse, err error) {
	start := s.now()
	defer func() { s.metrics.ObserveTransition(ActionApprove, err, time.Since(start)) }()

	var rma *returns.ReturnRequest
	err = s.scope.Execute(ctx, func(uow UnitOfWork) error {
		loaded, err := s.loadRMA(ctx, uow, storeID, rmaID)
		if err != nil {
			return err
		}
		rma = loaded
		if err := rma.CanApprove(); err != nil {
			return err
		}
		o, err := s.loadOrder(ctx, uow, storeID, rma.OrderID)
		if err != nil {
			return err
		}
		rules, err := uow.ShippingRules().FindActiveForStore(ctx, storeID)
		if err != nil {
			return fmt.Errorf("load shipping rules: %w", err)
		}

		now := s.now()
		snapshots := make(map[uuid.UUID]returns.ReturnShippingSnapshot)
		for _, line := range rma.LineDetails() {
			snapshots[line.ID] = s.resolver.Resolve(rules, o, line, now)
		}
		if err := rma.Approve(approverID, snapshots); err != nil {
			return err
		}
		if err := s.save(ctx, uow, rma); err != nil {
			return err
		}
		s.recordEvents(ctx, uow, rma)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterCommit(ctx, rma), nil
}

// Reject rejects a requested RMA. Terminal.
func (s *RMAService) Reject(ctx context.Context, storeID, rmaID, rejecterID uuid.UUID, reason string) (resp *RMAResponse, err error) {
	start := s.now()
	defer func() { s.metrics.ObserveTransition(ActionReject, err, time.Since(start)) }()

	var rma *returns.ReturnRequest
	err = s.scope.Execute(ctx, func(uow UnitOfWork) error {
		loaded, err := s.loadRMA(ctx, uow, storeID, rmaID)
		if err != nil {
			return err
		}
		rma = loaded
		if err := rma.Reject(rejecterID, reason); err != nil {
			return err
		}
		if err := s.save(ctx, uow, rma); err != nil {
			return err
		}
		s.recordEvents(ctx, uow, rma)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterCommit(ctx, rma), nil
}

// MarkPickedUp records carrier collection of an approved RMA
func (s *RMAService) MarkPickedUp(ctx context.Context, storeID, rmaID, actorID uuid.UUID) (resp *RMAResponse, err error) {
	start := s.now()
	defer func() { s.metrics.ObserveTransition(ActionPickup, err, time.Since(start)) }()

	var rma *returns.ReturnRequest
	err = s.scope.Execute(ctx, func(uow UnitOfWork) error {
		loaded, err := s.loadRMA(ctx, uow, storeID, rmaID)
		if err != nil {
			return err
		}
		rma = loaded
		if err := rma.MarkPickedUp(actorID); err != nil {
			return err
		}
		if err := s.save(ctx, uow, rma); err != nil {
			return err
		}
		s.recordEvents(ctx, uow, rma)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterCommit(ctx, rma), nil
}

// Receive processes the returned goods: restock, final refund, dispatch,
// credit note, ledger reversal and order progress, all in one unit of work.
// A failed provider refund aborts the whole transition.
func (s *RMAService) Receive(ctx context.Context, storeID, rmaID, receiverID uuid.UUID) (resp *RMAResponse, err error) {
	start := s.now()
	defer func() { s.metrics.ObserveTransition(ActionReceive, err, time.Since(start)) }()

	var rma *returns.ReturnRequest
	err = s.scope.Execute(ctx, func(uow UnitOfWork) error {
		loaded, err := s.loadRMA(ctx, uow, storeID, rmaID)
		if err != nil {
			return err
		}
		rma = loaded
		if err := rma.CanReceive(); err != nil {
			return err
		}
		lines, err := rma.ApprovedLines()
		if err != nil {
			return err
		}
		st, err := s.loadStore(ctx, uow, storeID)
		if err != nil {
			return err
		}
		o, err := s.loadOrderForUpdate(ctx, uow, storeID, rma.OrderID)
		if err != nil {
			return err
		}
		// an over-claim must fail before the provider moves any money
		if err := o.CheckReturn(rma.QuantityByItem()); err != nil {
			return err
		}
		now := s.now()

		summary, err := s.reversal.Reverse(ctx, uow.Inventory(), o.ID, lines)
		if err != nil {
			return err
		}

		lines, refund := s.calculator.Approved(o, lines)

		result, err := s.dispatcher.Dispatch(ctx, o, rma, refund)
		if err != nil {
			return err
		}
		if !result.Success {
			return returns.ErrRefundExecutionFailed.
				WithMessage(fmt.Sprintf("Refund for %s failed: %s", rma.RMANumber, result.ErrorReason)).
				WithReasons(result.ErrorReason)
		}

		var creditNoteID *uuid.UUID
		cnErr := uow.Savepoint(ctx, func(sp UnitOfWork) error {
			cn, err := s.creditNotes.Issue(ctx, sp, st, o, rma, refund, now)
			if cn != nil {
				creditNoteID = &cn.ID
			}
			return err
		})
		if cnErr != nil {
			creditNoteID = nil
			s.logger.Error("credit note issuance failed",
				zap.String("rma_number", rma.RMANumber),
				zap.Error(cnErr),
			)
		}

		if _, err := s.ledger.Reverse(ctx, uow.Ledger(), o, rma, lines, refund, now); err != nil {
			return err
		}

		if err := o.RecordReturn(rma.QuantityByItem()); err != nil {
			return err
		}
		if err := uow.Orders().SaveReturnProgress(ctx, o); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return shared.ErrInvalidState.WithMessage("Order was modified concurrently").WithCause(err)
			}
			return fmt.Errorf("save order progress: %w", err)
		}

		if err := rma.CompleteReceipt(returns.Receipt{
			ReceiverID:       receiverID,
			Lines:            lines,
			RefundAmount:     refund,
			RefundStatus:     result.RefundStatus,
			ProviderRefundID: result.ProviderRefundID,
			CreditNoteID:     creditNoteID,
		}); err != nil {
			return err
		}
		if err := s.save(ctx, uow, rma); err != nil {
			return err
		}
		s.recordEvents(ctx, uow, rma)

		s.logger.Info("return received",
			zap.String("rma_number", rma.RMANumber),
			zap.String("refund_amount", refund.String()),
			zap.String("refund_status", string(result.RefundStatus)),
			zap.Int("restocked", summary.Restocked),
			zap.Int("released", summary.Released),
			zap.Int("written_off", summary.Skipped),
			zap.String("order_status", string(o.Status)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterCommit(ctx, rma), nil
}

// Get returns one RMA of the store
func (s *RMAService) Get(ctx context.Context, storeID, rmaID uuid.UUID) (*RMAResponse, error) {
	var resp RMAResponse
	err := s.scope.Execute(ctx, func(uow UnitOfWork) error {
		rma, err := s.loadRMA(ctx, uow, storeID, rmaID)
		if err != nil {
			return err
		}
		resp = ToRMAResponse(rma)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns a page of the store's RMAs
func (s *RMAService) List(ctx context.Context, storeID uuid.UUID, q ListQuery) (*shared.Paginated[RMAResponse], error) {
	filter := q.toFilter()
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown status %q", filter.Status))
	}
	var page shared.Paginated[RMAResponse]
	err := s.scope.Execute(ctx, func(uow UnitOfWork) error {
		rs, total, err := uow.Returns().FindAllForStore(ctx, storeID, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(ToRMAResponses(rs), total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *RMAService) loadStore(ctx context.Context, uow UnitOfWork, storeID uuid.UUID) (*store.Store, error) {
	st, err := uow.Stores().FindByID(ctx, storeID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrNotFound.WithMessage("Store not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	return st, nil
}

func (s *RMAService) loadOrder(ctx context.Context, uow UnitOfWork, storeID, orderID uuid.UUID) (*order.Order, error) {
	return s.findOrder(ctx, storeID, orderID, uow.Orders().FindByIDForStore)
}

func (s *RMAService) loadOrderForUpdate(ctx context.Context, uow UnitOfWork, storeID, orderID uuid.UUID) (*order.Order, error) {
	return s.findOrder(ctx, storeID, orderID, uow.Orders().FindByIDForStoreForUpdate)
}

func (s *RMAService) findOrder(ctx context.Context, storeID, orderID uuid.UUID, find func(context.Context, uuid.UUID, uuid.UUID) (*order.Order, error)) (*order.Order, error) {
	o, err := find(ctx, storeID, orderID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, returns.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return o, nil
}

func (s *RMAService) loadRMA(ctx context.Context, uow UnitOfWork, storeID, rmaID uuid.UUID) (*returns.ReturnRequest, error) {
	rma, err := uow.Returns().FindByIDForStore(ctx, storeID, rmaID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, returns.ErrRMANotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load return request: %w", err)
	}
	return rma, nil
}

// save persists a transition. Losing the optimistic lock means another
// transition got there first, which callers see as an illegal transition.
func (s *RMAService) save(ctx context.Context, uow UnitOfWork, rma *returns.ReturnRequest) error {
	err := uow.Returns().SaveWithLock(ctx, rma)
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return shared.ErrInvalidState.
			WithMessage(fmt.Sprintf("Return %s was changed by a concurrent operation", rma.RMANumber)).
			WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("save return request: %w", err)
	}
	return nil
}

// recordEvents writes pending events to the outbox in a savepoint so a
// failure there cannot undo the transition
func (s *RMAService) recordEvents(ctx context.Context, uow UnitOfWork, rma *returns.ReturnRequest) {
	events := rma.GetDomainEvents()
	if s.encoder == nil || len(events) == 0 {
		return
	}
	err := uow.Savepoint(ctx, func(sp UnitOfWork) error {
		entries := make([]*shared.OutboxEntry, 0, len(events))
		for _, e := range events {
			payload, err := s.encoder.Serialize(e)
			if err != nil {
				return err
			}
			entries = append(entries, shared.NewOutboxEntry(e, payload))
		}
		return sp.Outbox().Save(ctx, entries...)
	})
	if err != nil {
		s.logger.Warn("failed to write events to outbox",
			zap.String("rma_number", rma.RMANumber),
			zap.Error(err),
		)
	}
}

// afterCommit hands events to the in-process bus and builds the response
func (s *RMAService) afterCommit(ctx context.Context, rma *returns.ReturnRequest) *RMAResponse {
	events := rma.GetDomainEvents()
	rma.ClearDomainEvents()
	if s.publisher != nil && len(events) > 0 {
		var errs error
		for _, e := range events {
			errs = multierr.Append(errs, s.publisher.Publish(ctx, e))
		}
		if errs != nil {
			s.logger.Warn("failed to publish return events",
				zap.String("rma_number", rma.RMANumber),
				zap.Errors("errors", multierr.Errors(errs)),
			)
		}
	}
	resp := ToRMAResponse(rma)
	return &resp
}
