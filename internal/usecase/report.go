package usecase

import (
	"time"

	"github.com/traysync/backend/internal/domain"
)

// DetailRecord is one entry of the forensic details artifact: the full
// payload and the full extracted source record of an attempted product.
type DetailRecord struct {
	Status    string                   `json:"status"`
	SKU       string                   `json:"sku"`
	Name      string                   `json:"name"`
	SourceRef string                   `json:"source_ref"`
	Payload   *domain.ProductPayload   `json:"payload,omitempty"`
	Record    *domain.RawProductRecord `json:"record,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// RunSummary is the aggregate count view of a finished run.
type RunSummary struct {
	Created    int
	Updated    int
	Skipped    int
	Failed     int
	Mismatches int
	Anomalies  int
}

// RunReport aggregates both collection audits, the reconciler's
// divergences and every synchronization outcome into one replayable
// record. It is append-only with a single writer: the run that owns it.
type RunReport struct {
	stamp     string
	startedAt time.Time

	SourceAudit domain.Audit
	TargetAudit domain.Audit
	Mismatches  []domain.MatchResult
	Outcomes    []domain.SyncOutcome
	Details     []DetailRecord
}

// NewRunReport starts an empty report stamped with the current time.
func NewRunReport() *RunReport {
	now := time.Now()
	return &RunReport{stamp: now.Format("20060102_150405"), startedAt: now}
}

// Stamp returns the run timestamp used in artifact file names.
func (r *RunReport) Stamp() string { return r.stamp }

// StartedAt returns when the run began.
func (r *RunReport) StartedAt() time.Time { return r.startedAt }

// SetAudits attaches the two collection audits.
func (r *RunReport) SetAudits(source, target domain.Audit) {
	r.SourceAudit = source
	r.TargetAudit = target
}

// SetMismatches attaches the reconciler's divergent matches. The
// mismatch artifact always reflects the full reconciler output, even
// when a sync limit truncates the processed candidates.
func (r *RunReport) SetMismatches(divergent []domain.MatchResult) {
	r.Mismatches = divergent
}

// Append records one synchronization outcome together with its forensic
// detail entry. Every attempt, success or failure, goes through here.
func (r *RunReport) Append(outcome domain.SyncOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)

	detail := DetailRecord{
		Status:    StatusLabel(outcome),
		SKU:       outcome.SKU,
		Name:      outcome.Name,
		SourceRef: outcome.SourceRef,
		Payload:   outcome.Payload,
		Record:    outcome.Record,
	}
	if outcome.Status == domain.SyncFailed {
		detail.Error = outcome.Reason
	}
	r.Details = append(r.Details, detail)
}

// Anomalies returns both stores' anomalies in collection order, source first.
func (r *RunReport) Anomalies() []domain.Anomaly {
	out := make([]domain.Anomaly, 0, len(r.SourceAudit.Anomalies)+len(r.TargetAudit.Anomalies))
	out = append(out, r.SourceAudit.Anomalies...)
	out = append(out, r.TargetAudit.Anomalies...)
	return out
}

// Summary tallies the report.
func (r *RunReport) Summary() RunSummary {
	s := RunSummary{
		Mismatches: len(r.Mismatches),
		Anomalies:  len(r.SourceAudit.Anomalies) + len(r.TargetAudit.Anomalies),
	}
	for _, o := range r.Outcomes {
		switch o.Status {
		case domain.SyncCreated:
			s.Created++
		case domain.SyncUpdated:
			s.Updated++
		case domain.SyncSkipped:
			s.Skipped++
		case domain.SyncFailed:
			s.Failed++
		}
	}
	return s
}

// StatusLabel maps an outcome to the status column of the sync report.
func StatusLabel(outcome domain.SyncOutcome) string {
	switch outcome.Status {
	case domain.SyncCreated, domain.SyncUpdated:
		return "OK"
	case domain.SyncSkipped:
		return "DRY_RUN"
	default:
		return "ERRO"
	}
}
