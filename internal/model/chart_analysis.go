package model

import "time"

// ChartAnalysis is a saved chart configuration plus the PNG the client
// rendered for it (`chart_analyses` table).  UploadID is a loose
// reference: the upload may since have been deleted.
type ChartAnalysis struct {
	ID               uint64    `json:"id"`
	UserEmail        string    `json:"userEmail"`
	UploadID         string    `json:"uploadId"`
	ChartType        string    `json:"chartType"`
	XAxis            string    `json:"xAxis"`
	YAxis            string    `json:"yAxis"`
	Summary          *string   `json:"summary,omitempty"`
	ChartImageBase64 string    `json:"chartImageBase64"`
	CreatedAt        time.Time `json:"createdAt"`
}

// DedupKey identifies analyses that describe the same chart.
func (a ChartAnalysis) DedupKey() string {
	return a.ChartType + "-" + a.XAxis + "-" + a.YAxis
}
