package entity

import "time"

// Prediction is one append-only row of the offline evaluation log. A
// ranking call over N candidates produces N predictions sharing a BatchID.
type Prediction struct {
	UserID       string
	ItemID       string
	ModelVersion string
	Score        float64
	BatchID      string
	CreatedAt    time.Time
}
