// Package session keeps per-browser UI state between page loads.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

const (
	PageChat    = "chat"
	PageHistory = "history"
	PageData    = "data"
)

// PendingExchange is an answered question waiting for the user's rating.
type PendingExchange struct {
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	LatencySeconds float64   `json:"latency_seconds"`
	AskedAt        time.Time `json:"asked_at"`
}

type State struct {
	Page          string            `json:"page"`
	DeveloperName string            `json:"developer_name"`
	EditMode      bool              `json:"edit_mode"`
	Pending       *PendingExchange  `json:"pending,omitempty"`
	Widgets       map[string]string `json:"widgets,omitempty"`
	// Flash is shown once on the next page render.
	Flash string `json:"flash,omitempty"`
}

// NewState starts in edit mode because no developer name is set yet.
func NewState() *State {
	return &State{Page: PageChat, EditMode: true, Widgets: map[string]string{}}
}

func (s *State) Widget(key, fallback string) string {
	if v, ok := s.Widgets[key]; ok {
		return v
	}
	return fallback
}

func (s *State) SetWidget(key, value string) {
	if s.Widgets == nil {
		s.Widgets = map[string]string{}
	}
	s.Widgets[key] = value
}

// TakeFlash returns the flash message and clears it.
func (s *State) TakeFlash() string {
	msg := s.Flash
	s.Flash = ""
	return msg
}

type Store interface {
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, id string, state *State) error
}

// Session binds a loaded state to its id and store.
type Session struct {
	ID    string
	State *State
	store Store
}

func New(id string, state *State, store Store) *Session {
	return &Session{ID: id, State: state, store: store}
}

func (s *Session) Save(ctx context.Context) error {
	return s.store.Save(ctx, s.ID, s.State)
}
