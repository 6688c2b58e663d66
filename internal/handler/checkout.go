package handler

import (
	"context"
	"net/http"
	"strconv"

	"pawmart-be/internal/order"
	"pawmart-be/internal/recovery"

	"github.com/gin-gonic/gin"
)

type DraftTracker interface {
	Track(d recovery.Draft) bool
	ListOpen(ctx context.Context, limit int) ([]recovery.IncompleteOrder, error)
}

type CheckoutHandler struct {
	orders order.Service
	drafts DraftTracker
}

func NewCheckoutHandler(orders order.Service, drafts DraftTracker) *CheckoutHandler {
	return &CheckoutHandler{orders: orders, drafts: drafts}
}

// SaveDraft handles POST /checkout/drafts, sent while the customer is still
// filling in the form.
func (h *CheckoutHandler) SaveDraft(c *gin.Context) {
	var d recovery.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if !h.drafts.Track(d) {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": d.SessionID})
}

// PlaceOrder handles POST /checkout/orders.
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var in order.PlaceOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	o, err := h.orders.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// Incomplete handles GET /admin/incomplete-orders.
func (h *CheckoutHandler) Incomplete(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	drafts, err := h.drafts.ListOpen(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if drafts == nil {
		drafts = []recovery.IncompleteOrder{}
	}
	c.JSON(http.StatusOK, gin.H{"items": drafts})
}
