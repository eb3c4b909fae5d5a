package events

import "time"

// TriggerFiredData is published when a rebalancing trigger evaluates true.
type TriggerFiredData struct {
	PortfolioID string    `json:"portfolio_id"`
	TriggerType string    `json:"trigger_type"`
	Urgency     string    `json:"urgency"`
	Reason      string    `json:"reason"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// AnalysisCompleteData is published after a full rebalancing analysis.
type AnalysisCompleteData struct {
	PortfolioID      string  `json:"portfolio_id"`
	ActionCount      int     `json:"action_count"`
	NeedsRebalancing bool    `json:"needs_rebalancing"`
	MaxDeviation     float64 `json:"max_deviation"`
	EstimatedCost    float64 `json:"estimated_cost"`
	DurationMs       int64   `json:"duration_ms"`
}

// HarvestScanData is published after a tax-loss harvesting scan.
type HarvestScanData struct {
	PortfolioID      string  `json:"portfolio_id"`
	OpportunityCount int     `json:"opportunity_count"`
	TotalBenefit     float64 `json:"total_benefit"`
}

// ScheduleGeneratedData is published when a rebalancing schedule is built.
type ScheduleGeneratedData struct {
	PortfolioID string `json:"portfolio_id"`
	EventCount  int    `json:"event_count"`
	Frequency   string `json:"frequency"`
}

// BackupCompletedData is published after a database backup upload.
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}
