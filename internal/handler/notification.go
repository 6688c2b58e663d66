package handler

import (
	"context"
	"net/http"
	"strconv"

	"pawmart-be/internal/notification"
	"pawmart-be/internal/utils"

	"github.com/gin-gonic/gin"
)

type Inbox interface {
	ListForUser(ctx context.Context, userID int64, limit int) ([]notification.InboxItem, error)
	MarkRead(ctx context.Context, userID, id int64) error
}

type NotificationHandler struct {
	inbox Inbox
}

func NewNotificationHandler(inbox Inbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c.Request.Context())
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.inbox.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []notification.InboxItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, _ := utils.GetUserIDFromContext(c.Request.Context())

	if err := h.inbox.MarkRead(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
