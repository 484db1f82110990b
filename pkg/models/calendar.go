package models

import "time"

// Holiday is a day without a JSDA publication.
type Holiday struct {
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	Source string    `json:"source,omitempty"` // "builtin", "cao"
}
