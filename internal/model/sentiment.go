package model

import "time"

// SentimentData is the optional external input for one symbol.
// Nil fields mean the value is unavailable.
type SentimentData struct {
	FundingRate *float64  `json:"funding_rate"`
	OIChangePct *float64  `json:"oi_change_pct"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// MonitorState tracks what the realtime monitor has already processed.
type MonitorState struct {
	Symbols   map[string]SymbolState `json:"symbols"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// SymbolState is the per-symbol part of MonitorState.
type SymbolState struct {
	LastBarTime  time.Time `json:"last_bar_time"`
	LastAction   Action    `json:"last_action"`
	LastStrength int       `json:"last_strength"`
	LastPrice    float64   `json:"last_price"`
}
