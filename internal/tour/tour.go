// Package tour holds the data and form handling behind the widget tour
// pages. Rendering lives in internal/web.
package tour

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Section struct {
	Key   string
	Title string
	Icon  string
}

// Sections in sidebar order.
var Sections = []Section{
	{Key: "basics", Title: "Basic widgets", Icon: "🧩"},
	{Key: "layout", Title: "Layout", Icon: "📐"},
	{Key: "data", Title: "Data display", Icon: "📋"},
	{Key: "charts", Title: "Charts", Icon: "📈"},
	{Key: "interactive", Title: "Interactive features", Icon: "🕹️"},
	{Key: "customize", Title: "Customize", Icon: "🎨"},
}

// SectionByKey falls back to the first section for unknown keys.
func SectionByKey(key string) Section {
	for _, s := range Sections {
		if s.Key == key {
			return s
		}
	}
	return Sections[0]
}

// Widgets is the persisted widget value store, satisfied by session.State.
type Widgets interface {
	Widget(key, fallback string) string
	SetWidget(key, value string)
}

const (
	DefaultName  = "Guest"
	DefaultAge   = 25
	DefaultCount = 10
	RangeMin     = 0.0
	RangeMax     = 100.0
)

var Languages = []string{"Python", "JavaScript", "Java", "C++", "Go", "Rust"}

type Basics struct {
	Name       string
	Age        int
	Language   string
	ShowHidden bool
	Clicked    bool
}

func (b Basics) Greeting() string {
	return "Hello, " + b.Name + "!"
}

func LoadBasics(w Widgets) Basics {
	return Basics{
		Name:       w.Widget("basics.name", DefaultName),
		Age:        atoiOr(w.Widget("basics.age", ""), DefaultAge),
		Language:   w.Widget("basics.language", Languages[0]),
		ShowHidden: w.Widget("basics.show_hidden", "") == "on",
	}
}

// ApplyBasics stores submitted basic widget values. Out-of-range values
// are clamped or ignored. Clicked reports whether the button was pressed.
func ApplyBasics(form url.Values, w Widgets) Basics {
	if form.Has("name") {
		w.SetWidget("basics.name", strings.TrimSpace(form.Get("name")))
	}
	if age, err := strconv.Atoi(form.Get("age")); err == nil {
		w.SetWidget("basics.age", strconv.Itoa(clampInt(age, 0, 100)))
	}
	if lang := form.Get("language"); slices.Contains(Languages, lang) {
		w.SetWidget("basics.language", lang)
	}
	show := ""
	if form.Get("show_hidden") == "on" {
		show = "on"
	}
	w.SetWidget("basics.show_hidden", show)

	b := LoadBasics(w)
	b.Clicked = form.Get("action") == "click"
	return b
}

type Layout struct {
	Number float64
	Tab    int
}

func LoadLayout(w Widgets) Layout {
	n, ok := parseFinite(w.Widget("layout.number", ""))
	if !ok {
		n = DefaultCount
	}
	return Layout{Number: n, Tab: clampInt(atoiOr(w.Widget("layout.tab", ""), 0), 0, 2)}
}

func ApplyLayout(form url.Values, w Widgets) Layout {
	if n, ok := parseFinite(form.Get("number")); ok {
		w.SetWidget("layout.number", strconv.FormatFloat(n, 'f', -1, 64))
	}
	if tab, err := strconv.Atoi(form.Get("tab")); err == nil {
		w.SetWidget("layout.tab", strconv.Itoa(clampInt(tab, 0, 2)))
	}
	return LoadLayout(w)
}

type Interactive struct {
	Date      string
	Time      string
	RangeLow  float64
	RangeHigh float64
}

func LoadInteractive(w Widgets, now time.Time) Interactive {
	low, okLow := parseFinite(w.Widget("interactive.low", ""))
	high, okHigh := parseFinite(w.Widget("interactive.high", ""))
	if !okLow || !okHigh {
		low, high = 25, 75
	}
	return Interactive{
		Date:      w.Widget("interactive.date", now.Format(time.DateOnly)),
		Time:      w.Widget("interactive.time", now.Format("15:04")),
		RangeLow:  low,
		RangeHigh: high,
	}
}

func ApplyInteractive(form url.Values, w Widgets, now time.Time) Interactive {
	if d, err := time.Parse(time.DateOnly, form.Get("date")); err == nil {
		w.SetWidget("interactive.date", d.Format(time.DateOnly))
	}
	if t, err := time.Parse("15:04", form.Get("time")); err == nil {
		w.SetWidget("interactive.time", t.Format("15:04"))
	}
	low, okLow := parseFinite(form.Get("low"))
	high, okHigh := parseFinite(form.Get("high"))
	if okLow && okHigh {
		low, high = clampFloat(low), clampFloat(high)
		if low > high {
			low, high = high, low
		}
		w.SetWidget("interactive.low", strconv.FormatFloat(low, 'f', -1, 64))
		w.SetWidget("interactive.high", strconv.FormatFloat(high, 'f', -1, 64))
	}
	return LoadInteractive(w, now)
}

type Theme struct {
	Name  string
	Color string
}

var Themes = []Theme{
	{Name: "Blue", Color: "#1E88E5"},
	{Name: "Green", Color: "#4CAF50"},
	{Name: "Red", Color: "#F44336"},
	{Name: "Purple", Color: "#9C27B0"},
	{Name: "Orange", Color: "#FF9800"},
}

func ThemeByName(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func LoadTheme(w Widgets) Theme {
	return ThemeByName(w.Widget("customize.theme", ""))
}

func ApplyTheme(form url.Values, w Widgets) Theme {
	theme := ThemeByName(form.Get("theme"))
	w.SetWidget("customize.theme", theme.Name)
	return theme
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// parseFinite parses s as a float, rejecting NaN and infinities.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v float64) float64 {
	return max(RangeMin, min(v, RangeMax))
}
