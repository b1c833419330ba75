package models

import "time"

// Alert reports a burst of incidents in one category.
type Alert struct {
	AlertID     string      `json:"alert_id"`
	Category    string      `json:"category"`
	Score       int         `json:"score"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	Tags        []Tag       `json:"tags,omitempty"`
	Counts      AlertCounts `json:"counts"`
	ReportIDs   []string    `json:"report_ids,omitempty"`
	Resources   []string    `json:"resources,omitempty"`
}

// AlertCounts summarizes signal density.
type AlertCounts struct {
	Reports   int `json:"reports"`
	Rules     int `json:"rules"`
	Resources int `json:"resources"`
}
