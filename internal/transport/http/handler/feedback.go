package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"feedbackbot/internal/app"
	"feedbackbot/internal/model"
	"feedbackbot/internal/transport/http/response"
)

type FeedbackHandler struct {
	feedbackService *app.FeedbackService
	historyService  *app.HistoryService
}

type RecordFeedbackRequest struct {
	Question string       `json:"question" binding:"required"`
	Answer   string       `json:"answer"`
	Latency  float64      `json:"latency"`
	Rating   model.Rating `json:"rating" binding:"required"`
}

func NewFeedbackHandler(feedbackService *app.FeedbackService, historyService *app.HistoryService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, historyService: historyService}
}

func (h *FeedbackHandler) Record(c *gin.Context) {
	var req RecordFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.feedbackService.Record(c.Request.Context(), app.RecordInput{
		Question: req.Question,
		Answer:   req.Answer,
		Latency:  req.Latency,
		Rating:   req.Rating,
	})
	if err != nil {
		writeFeedbackError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *FeedbackHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.historyService.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load history failed")
		return
	}
	response.OK(c, page)
}

func (h *FeedbackHandler) Stats(c *gin.Context) {
	stats, err := h.historyService.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load stats failed")
		return
	}
	response.OK(c, stats)
}

func writeFeedbackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question is required")
	case errors.Is(err, model.ErrInvalidRating):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRating, "rating must be accurate, partially_accurate or inaccurate")
	case errors.Is(err, model.ErrNegativeLatency):
		response.Error(c, http.StatusBadRequest, response.CodeNegativeLatency, "latency must not be negative")
	case errors.Is(err, app.ErrFeedbackEnqueue):
		response.Error(c, http.StatusServiceUnavailable, response.CodeQueueUnavailable, "feedback queue unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save feedback failed")
	}
}
