package handler

import (
	partnerapp "github.com/Z3RO333/formularios/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// SupplierHandler handles supplier registry endpoints
type SupplierHandler struct {
	BaseHandler
	suppliers *partnerapp.SupplierService
	resolver  *partnerapp.SupplierResolver
	merger    *partnerapp.SupplierMerger
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(suppliers *partnerapp.SupplierService, resolver *partnerapp.SupplierResolver, merger *partnerapp.SupplierMerger) *SupplierHandler {
	return &SupplierHandler{
		suppliers: suppliers,
		resolver:  resolver,
		merger:    merger,
	}
}

// List handles GET /suppliers. Merged suppliers are never listed.
func (h *SupplierHandler) List(c *gin.Context) {
	var filter partnerapp.SupplierListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.suppliers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get handles GET /suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	supplier, err := h.suppliers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// Resolve handles POST /suppliers/resolve. It may create a supplier or add
// an alias, so it is a POST.
func (h *SupplierHandler) Resolve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req partnerapp.ResolveSupplierRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.resolver.Resolve(c.Request.Context(), partnerapp.ResolveInput{
		Name:    req.Name,
		TaxID:   req.TaxID,
		Email:   req.Email,
		ActorID: actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partnerapp.ToResolveSupplierResponse(res))
}

// Merge handles POST /suppliers/merge
func (h *SupplierHandler) Merge(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req partnerapp.MergeSuppliersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.merger.Merge(c.Request.Context(), partnerapp.MergeInput{
		PrimaryID:   req.PrimaryID,
		SecondaryID: req.SecondaryID,
		ActorID:     actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partnerapp.ToMergeSuppliersResponse(res))
}

// Duplicates handles GET /suppliers/duplicates
func (h *SupplierHandler) Duplicates(c *gin.Context) {
	candidates, err := h.merger.FindSuspectedDuplicates(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, partnerapp.ToDuplicateCandidateResponses(candidates))
}
