package handlers

import (
	"net/http"
	"time"

	"github.com/azuradaemon/hati/internal/auth"
	"github.com/azuradaemon/hati/internal/common"
	"github.com/gin-gonic/gin"
)

type loginReq struct {
	Password string `json:"password" binding:"required"`
}

// Login exchanges the app password for a short-lived signed session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "password required")
		return
	}

	if !auth.CheckPassword(h.Cfg.AppPassword, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid password")
		return
	}

	token, expiresAt, err := auth.IssueSessionToken(h.Cfg.JWTSecret, h.Cfg.SessionTTL, time.Now())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to issue session token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.Unix(),
	})
}
