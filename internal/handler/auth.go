package handler

import (
	"net/http"

	"pawmart-be/internal/auth"
	"pawmart-be/internal/user"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type AuthHandler struct {
	users        user.Service
	secureCookie bool
}

func NewAuthHandler(users user.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, secureCookie: secureCookie}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	token, u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "a valid email and a password of at least 8 characters are required")
		return
	}

	token, u, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": u})
}

func (h *AuthHandler) setCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(user.DefaultTokenTTL.Seconds()), "/", "", h.secureCookie, true)
}
