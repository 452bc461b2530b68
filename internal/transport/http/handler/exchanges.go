package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"finrag/internal/repository"
	"finrag/internal/transport/http/response"
)

// ExchangeHandler exposes the archived exchange log for inspection.
// Only mounted when archiving is enabled.
type ExchangeHandler struct {
	repo *repository.ExchangeRepository
}

func NewExchangeHandler(repo *repository.ExchangeRepository) *ExchangeHandler {
	return &ExchangeHandler{repo: repo}
}

func (h *ExchangeHandler) List(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "session_id is required")
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	exchanges, err := h.repo.ListBySessionID(sessionID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list exchanges failed")
		return
	}

	response.OK(c, exchanges)
}
