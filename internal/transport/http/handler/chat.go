package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"feedbackbot/internal/app"
	"feedbackbot/internal/chat"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type AskRequest struct {
	Question string `json:"question" binding:"required,max=4000"`
}

type AskResponse struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Latency  float64 `json:"latency"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	reply, err := h.chatService.Ask(c.Request.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrQuestionEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question is empty")
		case errors.Is(err, chat.ErrModelUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeModelUnavailable, "chat is unavailable: the model failed to load")
		case errors.Is(err, chat.ErrGeneration):
			logger.L.Error("generate answer failed", "error", err)
			response.Error(c, http.StatusBadGateway, response.CodeGenerationFailed, "an error occurred while generating the answer")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal server error")
		}
		return
	}

	response.OK(c, AskResponse{
		Question: reply.Question,
		Answer:   reply.Answer,
		Latency:  reply.LatencySeconds(),
	})
}
