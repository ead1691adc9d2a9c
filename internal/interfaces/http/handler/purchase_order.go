package handler

import (
	tradeapp "github.com/Z3RO333/formularios/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey lets clients retry order creation safely
const HeaderIdempotencyKey = "Idempotency-Key"

// PurchaseOrderHandler handles order and lifecycle endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orders    *tradeapp.OrderService
	lifecycle *tradeapp.LifecycleService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orders *tradeapp.OrderService, lifecycle *tradeapp.LifecycleService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		orders:    orders,
		lifecycle: lifecycle,
	}
}

// Create handles POST /orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	requester, ok := h.actor(c)
	if !ok {
		return
	}
	var req tradeapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader(HeaderIdempotencyKey)

	order, err := h.orders.Create(c.Request.Context(), requester, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List handles GET /orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter tradeapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get handles GET /orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Update handles PUT /orders/:id and answers with the stored order
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req tradeapp.UpdateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.orders.Update(ctx, actor, id, req); err != nil {
		h.HandleError(c, err)
		return
	}
	order, err := h.orders.Get(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Approve handles POST /orders/:id/approve. The body is optional.
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req tradeapp.ApproveOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	order, err := h.lifecycle.Approve(c.Request.Context(), tradeapp.ApproveInput{
		OrderID: id,
		ActorID: actor,
		Note:    req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Reject handles POST /orders/:id/reject
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req tradeapp.RejectOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	order, err := h.lifecycle.Reject(c.Request.Context(), tradeapp.RejectInput{
		OrderID: id,
		ActorID: actor,
		Reason:  req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// History handles GET /orders/:id/history
func (h *PurchaseOrderHandler) History(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	entries, err := h.lifecycle.History(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// ImportPreview handles POST /orders/import/preview. Nothing is stored; the
// normalized payload prefills a new order form.
func (h *PurchaseOrderHandler) ImportPreview(c *gin.Context) {
	var payload tradeapp.ImportPayload
	if !h.bindJSON(c, &payload) {
		return
	}

	preview, err := tradeapp.NormalizeImport(payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}
