package ratingqueue

// LedgerAuditJob asks a worker to verify the running-rating chains of an event.
// A zero EventID audits every event that has ledger entries.
type LedgerAuditJob struct {
	EventID int64 `json:"event_id"`
}

// Kind returns the job type identifier for River
func (LedgerAuditJob) Kind() string { return "rating_ledger_audit" }

// AuditQueue is the dedicated River queue for ledger audits.
const AuditQueue = "rating_audit"
