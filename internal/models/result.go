package models

// Answer statuses.
const (
	StatusAnswered = "answered"
	StatusNoAnswer = "no_answer"
)

// QueryResult is the tabular output of a read-only statement.
// Columns are in statement order; each row has one value per column.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Answer is the outcome of answering one question.
// When Status is StatusNoAnswer the provider declined and Result is nil.
type Answer struct {
	Status   string       `json:"status"`
	Question string       `json:"question"`
	SQL      string       `json:"sql,omitempty"`
	Context  string       `json:"context,omitempty"`
	Sources  []string     `json:"sources,omitempty"`
	Result   *QueryResult `json:"result,omitempty"`
	// QueryTime is the end-to-end latency in milliseconds.
	QueryTime int64 `json:"query_time_ms"`
}

// Answered reports whether the answer carries executed rows.
func (a *Answer) Answered() bool {
	return a != nil && a.Status == StatusAnswered
}

// IngestResult reports what an ingestion run did.
type IngestResult struct {
	Skipped     bool   `json:"skipped"`
	Stale       bool   `json:"stale"`
	Documents   int    `json:"documents"`
	Chunks      int    `json:"chunks"`
	Total       int    `json:"total_chunks"`
	Fingerprint string `json:"fingerprint"`
	Duration    int64  `json:"duration_ms"`
}
