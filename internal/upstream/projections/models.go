package projections

import "time"

// Projection is a single stat-line prediction for a player. Records are
// immutable once decoded and live only for the duration of one tool call.
type Projection struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	SportID     int       `json:"sport_id"`
	SportName   string    `json:"sport_name"`
	GameID      string    `json:"game_id"`
	StatType    string    `json:"stat_type"`
	LineScore   float64   `json:"line_score"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	IsActive    bool      `json:"is_active"`
	// Opponent is omitted by the upstream when the matchup is not yet set.
	Opponent *string `json:"opponent"`
}

// Pagination describes the page window of a projections response.
type Pagination struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
	TotalCount int  `json:"total_count"`
	HasNext    bool `json:"has_next"`
}

// Page is one page of projections together with its pagination window.
type Page struct {
	Items      []Projection `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// Sport is an entry of the upstream sports catalog.
type Sport struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
