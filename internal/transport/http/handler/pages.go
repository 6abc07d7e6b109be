package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"feedbackbot/internal/app"
	"feedbackbot/internal/chat"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/session"
	"feedbackbot/internal/transport/http/middleware"
)

const historyPageSize = 10

// PageHandler serves the server-rendered chat app.
type PageHandler struct {
	chatService       *app.ChatService
	feedbackService   *app.FeedbackService
	historyService    *app.HistoryService
	sampleDataService *app.SampleDataService
	modelName         string
}

func NewPageHandler(
	chatService *app.ChatService,
	feedbackService *app.FeedbackService,
	historyService *app.HistoryService,
	sampleDataService *app.SampleDataService,
	modelName string,
) *PageHandler {
	return &PageHandler{
		chatService:       chatService,
		feedbackService:   feedbackService,
		historyService:    historyService,
		sampleDataService: sampleDataService,
		modelName:         modelName,
	}
}

// Index sends the browser back to the page it last viewed.
func (h *PageHandler) Index(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	switch sess.State.Page {
	case session.PageHistory, session.PageData:
		c.Redirect(http.StatusSeeOther, "/"+sess.State.Page)
	default:
		c.Redirect(http.StatusSeeOther, "/chat")
	}
}

func (h *PageHandler) Chat(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.State.Page = session.PageChat

	data := h.base(sess, "Phi-2 Chatbot")
	data["ModelName"] = h.modelName
	// blocks while the model is still loading
	if !h.chatService.Available(c.Request.Context()) {
		data["Unavailable"] = true
		data["LoadError"] = h.chatService.Status().Error
	} else {
		data["Pending"] = sess.State.Pending
	}
	c.HTML(http.StatusOK, "chat.html", data)
}

func (h *PageHandler) Ask(c *gin.Context) {
	sess := middleware.CurrentSession(c)

	reply, err := h.chatService.Ask(c.Request.Context(), c.PostForm("question"))
	switch {
	case err == nil:
		sess.State.Pending = &session.PendingExchange{
			Question:       reply.Question,
			Answer:         reply.Answer,
			LatencySeconds: reply.LatencySeconds(),
			AskedAt:        time.Now(),
		}
	case errors.Is(err, chat.ErrQuestionEmpty):
		sess.State.Flash = "Please enter a question."
	case errors.Is(err, chat.ErrModelUnavailable):
		// the chat page renders the unavailable notice
	default:
		logger.L.Error("generate answer failed", "error", err)
		sess.State.Flash = "An error occurred while generating the answer: " + err.Error()
	}
	redirect(c, sess, "/chat")
}

func (h *PageHandler) Feedback(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	pending := sess.State.Pending
	if pending == nil {
		sess.State.Flash = "There is no answer waiting for feedback."
		redirect(c, sess, "/chat")
		return
	}

	_, err := h.feedbackService.Record(c.Request.Context(), app.RecordInput{
		Question: pending.Question,
		Answer:   pending.Answer,
		Latency:  pending.LatencySeconds,
		Rating:   model.Rating(c.PostForm("rating")),
	})
	switch {
	case err == nil:
		sess.State.Pending = nil
		sess.State.Flash = "Thank you for your feedback!"
	case errors.Is(err, model.ErrInvalidRating):
		sess.State.Flash = "Please choose a rating."
	default:
		logger.L.Error("record feedback failed", "error", err)
		sess.State.Flash = "Saving your feedback failed. Please try again."
	}
	redirect(c, sess, "/chat")
}

func (h *PageHandler) Discard(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.State.Pending = nil
	redirect(c, sess, "/chat")
}

func (h *PageHandler) History(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.State.Page = session.PageHistory

	pageNumber, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || pageNumber < 1 {
		pageNumber = 1
	}
	ctx := c.Request.Context()
	page, err := h.historyService.List(ctx, historyPageSize, (pageNumber-1)*historyPageSize)
	if err != nil {
		h.renderError(c, sess, "Loading the history failed.")
		return
	}
	stats, err := h.historyService.Stats(ctx)
	if err != nil {
		h.renderError(c, sess, "Loading the history failed.")
		return
	}

	pageCount := int((page.Total + historyPageSize - 1) / historyPageSize)
	data := h.base(sess, "Chat history")
	data["Page"] = page
	data["Stats"] = stats
	data["PageNumber"] = pageNumber
	data["PageCount"] = max(pageCount, 1)
	c.HTML(http.StatusOK, "history.html", data)
}

func (h *PageHandler) Data(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.State.Page = session.PageData

	count, err := h.sampleDataService.Count(c.Request.Context())
	if err != nil {
		h.renderError(c, sess, "Counting records failed.")
		return
	}
	data := h.base(sess, "Sample data")
	data["Count"] = count
	data["PasswordRequired"] = h.sampleDataService.PasswordRequired()
	c.HTML(http.StatusOK, "data.html", data)
}

func (h *PageHandler) Reseed(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	n, err := h.sampleDataService.Reseed(c.Request.Context(), c.PostForm("password"))
	switch {
	case err == nil:
		sess.State.Flash = strconv.Itoa(n) + " sample records added."
	case errors.Is(err, app.ErrAdminPassword):
		sess.State.Flash = "The admin password is incorrect."
	default:
		logger.L.Error("reseed sample data failed", "error", err)
		sess.State.Flash = "Adding sample data failed."
	}
	redirect(c, sess, "/data")
}

// Developer saves or edits the developer name shown in the sidebar.
func (h *PageHandler) Developer(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	switch c.PostForm("action") {
	case "edit":
		sess.State.EditMode = true
	case "save":
		if name := c.PostForm("name"); name != "" {
			sess.State.DeveloperName = name
			sess.State.EditMode = false
		}
	}

	target := "/chat"
	switch c.PostForm("return") {
	case session.PageHistory:
		target = "/history"
	case session.PageData:
		target = "/data"
	}
	redirect(c, sess, target)
}

func (h *PageHandler) base(sess *session.Session, title string) gin.H {
	return gin.H{
		"Title": title,
		"Nav":   sess.State.Page,
		"Flash": sess.State.TakeFlash(),
		"Developer": gin.H{
			"Name":     sess.State.DeveloperName,
			"EditMode": sess.State.EditMode,
		},
	}
}

func (h *PageHandler) renderError(c *gin.Context, sess *session.Session, msg string) {
	data := h.base(sess, "Error")
	data["Message"] = msg
	c.HTML(http.StatusInternalServerError, "error.html", data)
}

// redirect saves the session before answering so the next request sees it.
func redirect(c *gin.Context, sess *session.Session, target string) {
	if err := sess.Save(c.Request.Context()); err != nil {
		logger.L.Warn("save session failed", "session_id", sess.ID, "error", err)
	}
	c.Redirect(http.StatusSeeOther, target)
}
