package ingest

// OutcomeStatus is the per-row result of an upsert attempt.
type OutcomeStatus string

const (
	StatusCreated  OutcomeStatus = "CREATED"
	StatusUpdated  OutcomeStatus = "UPDATED"
	StatusRejected OutcomeStatus = "REJECTED"
)

// RowOutcome records what happened to one grade fact. Component is set when a
// subject-template row fans out into independent midterm/final-term upserts.
type RowOutcome struct {
	Row       int           `json:"row"`
	Component string        `json:"component,omitempty"`
	Status    OutcomeStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
}

// BatchOutcome is the row-indexed report for one ingestion run.
type BatchOutcome struct {
	Format       SourceFormat `json:"source_format"`
	Entries      []RowOutcome `json:"entries"`
	SuccessCount int          `json:"success_count"`
	ErrorCount   int          `json:"error_count"`
}

// Append records an entry and updates the aggregate counts.
func (b *BatchOutcome) Append(entry RowOutcome) {
	b.Entries = append(b.Entries, entry)
	if entry.Status == StatusRejected {
		b.ErrorCount++
	} else {
		b.SuccessCount++
	}
}
