package domain

import "time"

// ImportResult reports the outcome of one import batch.
type ImportResult struct {
	BatchID    string      `json:"batch_id"`
	Records    int         `json:"records"`
	Inserted   int         `json:"inserted"`
	Duplicates int         `json:"duplicates"`
	Invalid    int         `json:"invalid"`
	NonOption  int         `json:"non_option"`
	Days       []DayResult `json:"days"`

	// Source and ArchivePath are set when the batch came from a file.
	Source      string `json:"source,omitempty"`
	ArchivePath string `json:"archive_path,omitempty"`
}

// Skipped is the number of records that were rejected as duplicates or as
// unparseable. Non-option and blank rows are not counted.
func (r ImportResult) Skipped() int {
	return r.Duplicates + r.Invalid
}

// DayResult reports one recomputation of a trade date.
type DayResult struct {
	Date       time.Time     `json:"date"`
	Executions int           `json:"executions"`
	RoundTrips int           `json:"round_trips"`
	Summary    *DailySummary `json:"summary,omitempty"`
	Leftovers  []Leftover    `json:"leftovers,omitempty"`
}
