package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ResultType is the severity of a rescheduling outcome.
type ResultType string

const (
	ResultSuccess ResultType = "success"
	ResultInfo    ResultType = "info"
	ResultWarning ResultType = "warning"
	ResultError   ResultType = "error"
)

// UndoEntry holds the original values of one record, keyed by field name.
type UndoEntry map[string]*time.Time

// UndoLog holds the original values of every record a call moved.
type UndoLog map[uuid.UUID]UndoEntry

// Remember stores r's current start and stop unless r is already logged, so
// the log always keeps the values from before the call.
func (l UndoLog) Remember(r *Record, fields FieldSet) {
	if _, ok := l[r.ID()]; ok {
		return
	}
	l[r.ID()] = UndoEntry{
		fields.Start.Name: fields.Start.Get(r),
		fields.Stop.Name:  fields.Stop.Get(r),
	}
}

// Merge adds other's entries that l does not hold yet.
func (l UndoLog) Merge(other UndoLog) {
	for id, entry := range other {
		if _, ok := l[id]; !ok {
			l[id] = entry
		}
	}
}

// IDs returns the logged record ids in a stable order.
func (l UndoLog) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return ids
}

// RescheduleResult is the envelope returned to the caller.
type RescheduleResult struct {
	Type      ResultType `json:"type"`
	Message   string     `json:"message"`
	UndoLog   UndoLog    `json:"undo_log"`
	UndoToken string     `json:"undo_token,omitempty"`
	Mode      Mode       `json:"mode,omitempty"`
	// Kind classifies the first message of a non-success outcome.
	Kind MessageKind `json:"kind,omitempty"`
	// Moved lists the written records in write order.
	Moved []uuid.UUID `json:"moved,omitempty"`
}

// NewWarningResult returns a warning with an empty undo log.
func NewWarningResult(kind MessageKind, message string) *RescheduleResult {
	return &RescheduleResult{Type: ResultWarning, Kind: kind, Message: message, UndoLog: UndoLog{}}
}
