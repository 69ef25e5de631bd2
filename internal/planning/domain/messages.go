package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// User facing messages.
const (
	MsgDependencyLoop = "The dependencies are not valid, there is a cycle."
	MsgNoCandidates   = "There are no valid candidates to re-plan."
	MsgSuccess        = "Reschedule done successfully."
)

// PastMessage reports a record that would start in the past.
func PastMessage(name string) string {
	return fmt.Sprintf("%s cannot be scheduled in the past.", name)
}

// RelationRejectedMessage reports a relation the hooks refused.
func RelationRejectedMessage(master, slave string) string {
	return fmt.Sprintf("You cannot reschedule %s towards %s.", master, slave)
}

// TriggerRejectedMessage reports a trigger the hooks refused.
func TriggerRejectedMessage(name string) string {
	return fmt.Sprintf("%s cannot be rescheduled.", name)
}

// StillInConflictMessage reports a moved record that still overlaps a neighbour.
func StillInConflictMessage(name, other string) string {
	return fmt.Sprintf("%s is still in conflict with %s.", name, other)
}

// MessageKind classifies a log message.
type MessageKind string

const (
	KindLoopError        MessageKind = "loop_error"
	KindPastError        MessageKind = "past_error"
	KindNoPossibleAction MessageKind = "no_possible_action_error"
	KindNotCandidate     MessageKind = "not_candidate_warning"
	KindStillInConflict  MessageKind = "still_in_conflict_warning"
)

// LogMessage is one entry of a call's message log.
type LogMessage struct {
	Kind     MessageKind
	RecordID uuid.UUID
	Text     string
}

// LogMessages collects the errors that halt a cascade and the warnings that
// do not.
type LogMessages struct {
	Errors   []LogMessage
	Warnings []LogMessage
}

func (l *LogMessages) AddError(m LogMessage)   { l.Errors = append(l.Errors, m) }
func (l *LogMessages) AddWarning(m LogMessage) { l.Warnings = append(l.Warnings, m) }

// Merge appends other's messages after l's.
func (l *LogMessages) Merge(other LogMessages) {
	l.Errors = append(l.Errors, other.Errors...)
	l.Warnings = append(l.Warnings, other.Warnings...)
}

func (l LogMessages) HasErrors() bool   { return len(l.Errors) > 0 }
func (l LogMessages) HasWarnings() bool { return len(l.Warnings) > 0 }

// Kind returns the kind of the first error, else of the first warning.
func (l LogMessages) Kind() MessageKind {
	if len(l.Errors) > 0 {
		return l.Errors[0].Kind
	}
	if len(l.Warnings) > 0 {
		return l.Warnings[0].Kind
	}
	return ""
}

// Text joins every message with newlines, errors first.
func (l LogMessages) Text() string {
	lines := make([]string, 0, len(l.Errors)+len(l.Warnings))
	for _, m := range l.Errors {
		lines = append(lines, m.Text)
	}
	for _, m := range l.Warnings {
		lines = append(lines, m.Text)
	}
	return strings.Join(lines, "\n")
}
