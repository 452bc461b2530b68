package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finrag/internal/app"
	"finrag/internal/transport/http/response"
)

type AskHandler struct {
	answerService *app.AnswerService
}

type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// AskResponse is the fixed wire shape: session_id is always present, even
// when the request carried none.
type AskResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

func NewAskHandler(answerService *app.AnswerService) *AskHandler {
	return &AskHandler{answerService: answerService}
}

func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question is required")
		return
	}

	result, err := h.answerService.Answer(c.Request.Context(), app.AnswerInput{
		Question:  req.Question,
		SessionID: req.SessionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrQuestionEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question is required")
		case errors.Is(err, app.ErrEmbedding):
			response.Error(c, http.StatusBadGateway, response.CodeEmbeddingFailed, "embedding the question failed")
		case errors.Is(err, app.ErrRetrieval):
			response.Error(c, http.StatusBadGateway, response.CodeRetrievalFailed, "retrieving context failed")
		case errors.Is(err, app.ErrCompletion):
			response.Error(c, http.StatusBadGateway, response.CodeCompletionFailed, "generating the answer failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
		}
		return
	}

	c.JSON(http.StatusOK, AskResponse{
		Answer:    result.Answer,
		SessionID: result.SessionID,
	})
}
