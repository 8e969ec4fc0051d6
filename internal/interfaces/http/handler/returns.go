package handler

import (
	"context"

	appreturns "github.com/erp/returns/internal/application/returns"
	"github.com/erp/returns/internal/domain/returns"
	"github.com/erp/returns/internal/domain/shared"
	"github.com/erp/returns/internal/infrastructure/auth"
	"github.com/erp/returns/internal/interfaces/http/dto"
	"github.com/erp/returns/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReturnsService is the application service behind the returns endpoints
type ReturnsService interface {
	Request(ctx context.Context, in appreturns.RequestInput) (*appreturns.RMAResponse, error)
	Approve(ctx context.Context, storeID, rmaID, approverID uuid.UUID) (*appreturns.RMAResponse, error)
	Reject(ctx context.Context, storeID, rmaID, rejecterID uuid.UUID, reason string) (*appreturns.RMAResponse, error)
	MarkPickedUp(ctx context.Context, storeID, rmaID, actorID uuid.UUID) (*appreturns.RMAResponse, error)
	Receive(ctx context.Context, storeID, rmaID, receiverID uuid.UUID) (*appreturns.RMAResponse, error)
	Get(ctx context.Context, storeID, rmaID uuid.UUID) (*appreturns.RMAResponse, error)
	List(ctx context.Context, storeID uuid.UUID, q appreturns.ListQuery) (*shared.Paginated[appreturns.RMAResponse], error)
}

// AuditReader reads the audit trail of a return
type AuditReader interface {
	FindByRMA(ctx context.Context, storeID, rmaID uuid.UUID) ([]appreturns.AuditEntry, error)
}

// ReturnsHandler serves /returns
type ReturnsHandler struct {
	BaseHandler
	service ReturnsService
	audit   AuditReader
}

// NewReturnsHandler creates a ReturnsHandler. audit may be nil, in which
// case the audit endpoint is not registered.
func NewReturnsHandler(service ReturnsService, audit AuditReader) *ReturnsHandler {
	return &ReturnsHandler{service: service, audit: audit}
}

// RegisterRoutes mounts the returns endpoints. Customers may open and read
// their own returns; lifecycle transitions need the staff role.
func (h *ReturnsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/returns")
	staff := middleware.RequireRole(auth.RoleStaff)

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/approve", staff, h.Approve)
	g.POST("/:id/reject", staff, h.Reject)
	g.POST("/:id/pickup", staff, h.Pickup)
	g.POST("/:id/receive", staff, h.Receive)
	if h.audit != nil {
		g.GET("/:id/audit", staff, h.AuditTrail)
	}
}

// Create godoc
//
//	@ID				createReturn
//	@Summary		Request a return
//	@Description	Open a return request against a delivered order. A customer token always requests for itself; staff may name a customer.
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateReturnRequest	true	"Return request"
//	@Success		201		{object}	dto.Response{data=appreturns.RMAResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/returns [post]
func (h *ReturnsHandler) Create(c *gin.Context) {
	storeID, actorID, err := identity(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	in := appreturns.RequestInput{
		StoreID:      storeID,
		OrderID:      uuid.MustParse(req.OrderID),
		ActorID:      actorID,
		Type:         returns.Type(req.Type),
		RefundMethod: returns.RefundMethod(req.RefundMethod),
		Lines:        make([]appreturns.LineRequest, 0, len(req.Lines)),
	}
	switch {
	case middleware.IsCustomer(c):
		in.CustomerID = &actorID
	case req.CustomerID != nil:
		id := uuid.MustParse(*req.CustomerID)
		in.CustomerID = &id
	}
	for _, l := range req.Lines {
		line := appreturns.LineRequest{
			VariantID:  uuid.MustParse(l.VariantID),
			Quantity:   l.Quantity,
			ReasonCode: l.ReasonCode,
			Condition:  returns.Condition(l.Condition),
		}
		if l.OriginID != nil {
			id := uuid.MustParse(*l.OriginID)
			line.OriginID = &id
		}
		in.Lines = append(in.Lines, line)
	}

	resp, err := h.service.Request(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Approve godoc
//
//	@ID				approveReturn
//	@Summary		Approve a return
//	@Description	Move a requested return to approved and freeze the return-shipping cost of each line
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return request ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=appreturns.RMAResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		500	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/returns/{id}/approve [post]
func (h *ReturnsHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Pickup godoc
//
//	@ID				pickupReturn
//	@Summary		Mark a return picked up
//	@Description	Record that the carrier collected the parcel of an approved return
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return request ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=appreturns.RMAResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		500	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/returns/{id}/pickup [post]
func (h *ReturnsHandler) Pickup(c *gin.Context) {
	h.transition(c, h.service.MarkPickedUp)
}

// Receive godoc
//
//	@ID				receiveReturn
//	@Summary		Receive a return
//	@Description	Complete the return: restock, refund through the original payment method, write ledger entries and issue the credit note
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return request ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=appreturns.RMAResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		500	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/returns/{id}/receive [post]
func (h *ReturnsHandler) Receive(c *gin.Context) {
	h.transition(c, h.service.Receive)
}

// Reject godoc
//
//	@ID				rejectReturn
//	@Summary		Reject a return
//	@Description	Close a requested return with a reason
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Return request ID"	format(uuid)
//	@Param			request	body		dto.RejectReturnRequest	true	"Rejection reason"
//	@Success		200		{object}	dto.Response{data=appreturns.RMAResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/returns/{id}/reject [post]
func (h *ReturnsHandler) Reject(c *gin.Context) {
	storeID, actorID, rmaID, ok := h.target(c)
	if !ok {
		return
	}
	var req dto.RejectReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.Reject(c.Request.Context(), storeID, rmaID, actorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
//
//	@ID				getReturn
//	@Summary		Get a return
//	@Description	Get one return request. Customers only see their own.
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return request ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=appreturns.RMAResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		500	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/returns/{id} [get]
func (h *ReturnsHandler) Get(c *gin.Context) {
	storeID, actorID, rmaID, ok := h.target(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), storeID, rmaID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if middleware.IsCustomer(c) && (resp.CustomerID == nil || *resp.CustomerID != actorID) {
		h.HandleError(c, shared.ErrNotFound)
		return
	}
	h.Success(c, resp)
}

// List godoc
//
//	@ID				listReturns
//	@Summary		List returns
//	@Description	Page through the store's return requests. Customers only see their own.
//	@Tags			returns
//	@Produce		json
//	@Param			status		query		string	false	"Status filter"	Enums(requested, approved, rejected, picked_up, received)
//	@Param			order_id	query		string	false	"Order ID"		format(uuid)
//	@Param			customer_id	query		string	false	"Customer ID"	format(uuid)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Param			order_by	query		string	false	"Sort field"
//	@Param			order_dir	query		string	false	"Sort direction"	Enums(asc, desc)
//	@Success		200			{object}	dto.Response{data=[]appreturns.RMAResponse,meta=dto.Meta}
//	@Failure		400			{object}	dto.Response
//	@Failure		401			{object}	dto.Response
//	@Failure		500			{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/returns [get]
func (h *ReturnsHandler) List(c *gin.Context) {
	storeID, actorID, err := identity(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.ListReturnsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	q := appreturns.ListQuery{
		Status:   returns.Status(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
	if req.OrderID != "" {
		id := uuid.MustParse(req.OrderID)
		q.OrderID = &id
	}
	if req.CustomerID != "" {
		id := uuid.MustParse(req.CustomerID)
		q.CustomerID = &id
	}
	if middleware.IsCustomer(c) {
		q.CustomerID = &actorID
	}

	page, err := h.service.List(c.Request.Context(), storeID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize, page.TotalPages)
}

// AuditTrail godoc
//
//	@ID				getReturnAuditTrail
//	@Summary		Get the audit trail of a return
//	@Description	List the recorded transitions of a return, oldest first
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return request ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=[]dto.AuditEntryResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		500	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/returns/{id}/audit [get]
func (h *ReturnsHandler) AuditTrail(c *gin.Context) {
	storeID, _, rmaID, ok := h.target(c)
	if !ok {
		return
	}
	if _, err := h.service.Get(c.Request.Context(), storeID, rmaID); err != nil {
		h.HandleError(c, err)
		return
	}

	entries, err := h.audit.FindByRMA(c.Request.Context(), storeID, rmaID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]dto.AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.AuditEntryResponse{
			Action:     e.Action,
			Status:     string(e.Status),
			ActorID:    e.ActorID,
			Detail:     e.Detail,
			OccurredAt: e.OccurredAt,
		}
	}
	h.Success(c, out)
}

type transitionFunc func(ctx context.Context, storeID, rmaID, actorID uuid.UUID) (*appreturns.RMAResponse, error)

func (h *ReturnsHandler) transition(c *gin.Context, fn transitionFunc) {
	storeID, actorID, rmaID, ok := h.target(c)
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), storeID, rmaID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// target resolves the caller and the :id path parameter, writing the error
// response itself when either is missing
func (h *ReturnsHandler) target(c *gin.Context) (storeID, actorID, rmaID uuid.UUID, ok bool) {
	storeID, actorID, err := identity(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return storeID, actorID, uuid.MustParse(uri.ID), true
}
