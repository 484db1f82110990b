package models

import "time"

// Notice is one announcement item from the configured feed.
type Notice struct {
	Title     string    `json:"title"`
	Link      string    `json:"link,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Published time.Time `json:"published"`
	Source    string    `json:"source,omitempty"`
}
