package models

import "time"

// Event types published when panel state changes.
const (
	EventProfileLoaded   = "profile_loaded"
	EventProfileSaved    = "profile_saved"
	EventProfileDeleted  = "profile_deleted"
	EventProfileRenamed  = "profile_renamed"
	EventDaySelected     = "day_selected"
	EventDayCommitted    = "day_committed"
	EventCurveEdited     = "curve_edited"
	EventYearApplied     = "year_applied"
	EventMonthChanged    = "month_changed"
	EventBoundsChanged   = "bounds_changed"
	EventSeasonalLoaded  = "seasonal_loaded"
	EventSelectionClosed = "selection_closed"
)

// Event is a state change notification fanned out to browsers and the
// archive stream.
type Event struct {
	ID        string    `json:"id" db:"event_id"`
	Type      string    `json:"type" db:"type"`
	Profile   string    `json:"profile,omitempty" db:"profile"`
	Day       *int      `json:"day,omitempty" db:"day"`
	Message   string    `json:"message,omitempty" db:"message"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
}

// Snapshot is an archived copy of a saved profile.
type Snapshot struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Config   []byte    `json:"config" db:"config_json"`
	Seasonal []byte    `json:"-" db:"seasonal_blob"`
	SavedAt  time.Time `json:"saved_at" db:"saved_at"`
}

// Anomaly is a day whose average departs sharply from its neighbours.
type Anomaly struct {
	Day      int     `json:"day"`
	Month    int     `json:"month"`
	Average  float64 `json:"average"`
	ZScore   float64 `json:"z_score"`
	Severity string  `json:"severity"` // "low", "medium", "high"
}

// SmoothingSuggestion recommends smoothing a month with repeated anomalies.
type SmoothingSuggestion struct {
	Month        int       `json:"month"`
	AnomalyCount int       `json:"anomaly_count"`
	Confidence   float64   `json:"confidence"` // 0-1
	Description  string    `json:"description"`
	SuggestedAt  time.Time `json:"suggested_at"`
}
