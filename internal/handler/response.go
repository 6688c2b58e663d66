package handler

import (
	"errors"
	"net/http"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/order"
	"pawmart-be/internal/user"
	"pawmart-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type apiError struct {
	status  int
	code    string
	message string
}

var knownErrors = []struct {
	target error
	apiError
}{
	{order.ErrOrderNotFound, apiError{http.StatusNotFound, "NOT_FOUND", ""}},
	{order.ErrStatusConflict, apiError{http.StatusConflict, "STATUS_CONFLICT", ""}},
	{order.ErrInvalidTransition, apiError{http.StatusConflict, "INVALID_TRANSITION", ""}},
	{order.ErrOrderTrashed, apiError{http.StatusConflict, "ORDER_TRASHED", ""}},
	{order.ErrOrderNotTrashed, apiError{http.StatusConflict, "NOT_TRASHED", ""}},
	{user.ErrInvalidCredentials, apiError{http.StatusUnauthorized, "INVALID_CREDENTIALS", ""}},
	{user.ErrEmailExists, apiError{http.StatusConflict, "EMAIL_EXISTS", ""}},
}

func classify(err error) apiError {
	if order.IsValidation(err) {
		return apiError{http.StatusBadRequest, "VALIDATION_ERROR", unwrapMessage(err)}
	}
	for _, k := range knownErrors {
		if errors.Is(err, k.target) {
			ae := k.apiError
			ae.message = k.target.Error()
			return ae
		}
	}
	return apiError{http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong, please try again"}
}

// unwrapMessage drops the "accept order 12:" prefix of action errors.
func unwrapMessage(err error) string {
	var actionErr *order.ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Err.Error()
	}
	return err.Error()
}

// respondError writes the error envelope. Failed review actions echo the
// submitted input back as "draft" so the form can be restored.
func respondError(c *gin.Context, err error) {
	ae := classify(err)

	if ae.status >= http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("layer", "handler"),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	body := gin.H{
		"error": gin.H{
			"code":    ae.code,
			"message": ae.message,
		},
	}

	var actionErr *order.ActionError
	if errors.As(err, &actionErr) && actionErr.Draft != nil {
		body["draft"] = actionErr.Draft
	}

	c.JSON(ae.status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": message,
		},
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
