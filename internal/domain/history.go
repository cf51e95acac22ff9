package domain

import "time"

// HistoryItem is one persisted enhancement: the prompt the user typed, the
// enhanced version returned by the model, and the improvement notes.
type HistoryItem struct {
	ID           string    `json:"id"`
	Original     string    `json:"original"`
	Enhanced     string    `json:"enhanced"`
	Improvements []string  `json:"improvements"`
	CreatedAt    time.Time `json:"created_at"`
}
