package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Rating string

const (
	RatingAccurate          Rating = "accurate"
	RatingPartiallyAccurate Rating = "partially_accurate"
	RatingInaccurate        Rating = "inaccurate"
)

// Ratings lists the accepted ratings in display order.
var Ratings = []Rating{RatingAccurate, RatingPartiallyAccurate, RatingInaccurate}

var (
	ErrNegativeLatency = errors.New("latency must not be negative")
	ErrInvalidRating   = errors.New("rating is not recognised")
)

func (r Rating) Valid() bool {
	for _, known := range Ratings {
		if r == known {
			return true
		}
	}
	return false
}

func (r Rating) Label() string {
	switch r {
	case RatingAccurate:
		return "Accurate"
	case RatingPartiallyAccurate:
		return "Partially accurate"
	case RatingInaccurate:
		return "Inaccurate"
	default:
		return string(r)
	}
}

// Feedback is one completed chat exchange and the user's rating of it.
// Rows are append-only.
type Feedback struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Latency   float64   `gorm:"not null" json:"latency"`
	Rating    Rating    `gorm:"size:32;not null;index" json:"rating"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}

func (f *Feedback) Validate() error {
	if f.Latency < 0 {
		return ErrNegativeLatency
	}
	if !f.Rating.Valid() {
		return ErrInvalidRating
	}
	return nil
}

func (f *Feedback) BeforeCreate(_ *gorm.DB) error {
	return f.Validate()
}

// FeedbackStats summarises the feedback table.
type FeedbackStats struct {
	Total          int64            `json:"total"`
	AverageLatency float64          `json:"average_latency"`
	ByRating       map[Rating]int64 `json:"by_rating"`
}

// FeedbackPage is one page of history, newest first.
type FeedbackPage struct {
	Records []Feedback `json:"records"`
	Total   int64      `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}
