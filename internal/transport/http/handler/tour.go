package handler

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"feedbackbot/internal/session"
	"feedbackbot/internal/tour"
	"feedbackbot/internal/transport/http/middleware"
)

const (
	chartWidth  = 600
	chartHeight = 200
)

type TourHandler struct {
	now func() time.Time
	rng func() *rand.Rand
}

func NewTourHandler() *TourHandler {
	return &TourHandler{
		now: time.Now,
		rng: func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	}
}

func (h *TourHandler) Show(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	key := c.Query("section")
	if key == "" {
		key = sess.State.Widget("tour.section", "")
	}
	section := tour.SectionByKey(key)
	sess.State.SetWidget("tour.section", section.Key)

	data := h.base(sess.State, section)
	switch section.Key {
	case "basics":
		data["Basics"] = tour.LoadBasics(sess.State)
	case "layout":
		data["Layout"] = tour.LoadLayout(sess.State)
	case "interactive":
		data["Interactive"] = tour.LoadInteractive(sess.State, h.now())
	case "customize":
		data["Theme"] = tour.LoadTheme(sess.State)
	}
	c.HTML(http.StatusOK, "tour.html", data)
}

// Apply stores a section's submitted widget values and renders the result
// directly so one-shot feedback (button clicks, effects) is visible.
func (h *TourHandler) Apply(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	section := tour.SectionByKey(c.Param("section"))
	sess.State.SetWidget("tour.section", section.Key)
	if err := c.Request.ParseForm(); err != nil {
		c.Redirect(http.StatusSeeOther, "/tour?section="+section.Key)
		return
	}
	form := c.Request.PostForm

	data := h.base(sess.State, section)
	switch section.Key {
	case "basics":
		data["Basics"] = tour.ApplyBasics(form, sess.State)
	case "layout":
		data["Layout"] = tour.ApplyLayout(form, sess.State)
	case "interactive":
		data["Interactive"] = tour.ApplyInteractive(form, sess.State, h.now())
	case "customize":
		data["Theme"] = tour.ApplyTheme(form, sess.State)
		data["Effects"] = form.Get("action") == "effects"
	}
	c.HTML(http.StatusOK, "tour.html", data)
}

func (h *TourHandler) Upload(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	section := tour.SectionByKey("interactive")
	sess.State.SetWidget("tour.section", section.Key)

	data := h.base(sess.State, section)
	data["Interactive"] = tour.LoadInteractive(sess.State, h.now())

	preview, err := readUpload(c)
	if err != nil {
		data["UploadError"] = uploadErrorMessage(err)
		c.HTML(http.StatusBadRequest, "tour.html", data)
		return
	}
	data["Upload"] = preview
	c.HTML(http.StatusOK, "tour.html", data)
}

func readUpload(c *gin.Context) (*tour.UploadPreview, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, tour.MaxUploadBytes+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	if fileHeader.Size > tour.MaxUploadBytes {
		return nil, tour.ErrFileTooLarge
	}
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, tour.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	return tour.Preview(fileHeader.Filename, body)
}

func uploadErrorMessage(err error) string {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, tour.ErrUnsupportedFile):
		return "Unsupported file type. Accepted: " + strings.Join(tour.UploadTypes, ", ")
	case errors.Is(err, tour.ErrFileTooLarge), errors.As(err, &maxErr):
		return "The file is too large."
	case errors.Is(err, tour.ErrImageTooLarge):
		return fmt.Sprintf("The image is too large. Images up to %dx%d pixels are accepted.", tour.MaxImageSide, tour.MaxImageSide)
	case errors.Is(err, http.ErrMissingFile):
		return "Please choose a file."
	default:
		return "The file could not be read: " + err.Error()
	}
}

func (h *TourHandler) base(state *session.State, section tour.Section) gin.H {
	charts := tour.NewCharts(h.rng())
	return gin.H{
		"Title":        "Widget tour",
		"Tour":         true,
		"Sections":     tour.Sections,
		"Section":      section,
		"Now":          h.now().Format(time.DateTime),
		"Languages":    tour.Languages,
		"Themes":       tour.Themes,
		"People":       tour.People(),
		"Metrics":      tour.WeatherMetrics(),
		"LayoutMetric": tour.LayoutMetric(),
		"UploadAccept": strings.Join(tour.UploadTypes, ","),
		"Flash":        state.TakeFlash(),
		"Charts": gin.H{
			"Lines": charts.Line.Polylines(chartWidth, chartHeight),
			"Bars":  charts.Bar.Bars(chartWidth, chartHeight),
			"Areas": charts.Area.Polylines(chartWidth, chartHeight),
			"Dots":  tour.ScatterDots(charts.Scatter, chartWidth, 300),
		},
	}
}
