package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pawmart-be/internal/order"
	"pawmart-be/internal/utils"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders order.Service
}

func NewOrderHandler(orders order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List handles GET /admin/orders.
func (h *OrderHandler) List(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Mine handles GET /orders, the signed-in customer's own orders.
func (h *OrderHandler) Mine(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c.Request.Context())

	filter, err := parseListFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	filter.UserID = &userID
	filter.Trashed = false
	filter.IncludeRisk = false

	page, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	review, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *OrderHandler) Fraud(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	analysis, err := h.orders.AnalyzeOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *OrderHandler) Accept(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in order.AcceptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	o, err := h.orders.AcceptOrder(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in order.RejectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	o, err := h.orders.RejectOrder(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Advance(c *gin.Context) {
	h.simpleAction(c, h.orders.AdvanceOrder)
}

func (h *OrderHandler) Trash(c *gin.Context) {
	h.simpleAction(c, h.orders.TrashOrder)
}

func (h *OrderHandler) Restore(c *gin.Context) {
	h.simpleAction(c, h.orders.RestoreOrder)
}

func (h *OrderHandler) simpleAction(c *gin.Context, action func(ctx context.Context, id int64) (*order.Order, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	o, err := action(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) PendingCounts(c *gin.Context) {
	counts, err := h.orders.PendingCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// TrackingID suggests a fresh parcel reference for the accept form.
func (h *OrderHandler) TrackingID(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tracking_id": utils.GenerateTrackingID()})
}

func parseListFilter(c *gin.Context) (order.ListFilter, error) {
	var f order.ListFilter

	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			s := order.Status(strings.ToLower(part))
			if !s.Valid() {
				return f, fmt.Errorf("unknown status %q", part)
			}
			f.Statuses = append(f.Statuses, s)
		}
	}

	f.Search = c.Query("q")
	f.Trashed = c.Query("trashed") == "true"
	f.IncludeRisk = c.Query("risk") == "true"

	var err error
	if f.DateFrom, err = parseDate(c.Query("from"), false); err != nil {
		return f, errors.New("invalid from date")
	}
	if f.DateTo, err = parseDate(c.Query("to"), true); err != nil {
		return f, errors.New("invalid to date")
	}

	if v := c.Query("page"); v != "" {
		if f.Page, err = strconv.Atoi(v); err != nil {
			return f, errors.New("invalid page")
		}
	}
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, errors.New("invalid limit")
		}
	}

	return f, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain "to" date
// covers the whole day.
func parseDate(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
