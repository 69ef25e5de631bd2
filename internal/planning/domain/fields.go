package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Default field names used when a caller does not name its own.
const (
	DefaultDependencyField         = "depend_on_ids"
	DefaultDependencyInvertedField = "dependent_ids"
	DefaultStartField              = "planned_start"
	DefaultStopField               = "planned_stop"
)

// RelationField names a record-to-record relation.
type RelationField struct {
	Name string
}

// Get returns the ids the relation holds on r.
func (f RelationField) Get(r *Record) []uuid.UUID {
	return r.Relation(f.Name)
}

// Contains reports whether id is held by the relation on r.
func (f RelationField) Contains(r *Record, id uuid.UUID) bool {
	return slices.Contains(r.relations[f.Name], id)
}

// DateField names a nullable datetime field.
type DateField struct {
	Name string
}

// Get reads the field from r.
func (f DateField) Get(r *Record) *time.Time {
	return r.Date(f.Name)
}

// Set writes the field on r.
func (f DateField) Set(r *Record, value *time.Time) {
	r.SetDate(f.Name, value)
}

// FieldSet bundles the four field descriptors one rescheduling call works on:
// the predecessor and successor relations and the start and stop dates.
type FieldSet struct {
	Dependency         RelationField
	DependencyInverted RelationField
	Start              DateField
	Stop               DateField
}

// NewFieldSet builds and validates a field set from field names.
func NewFieldSet(dependency, dependencyInverted, start, stop string) (FieldSet, error) {
	fs := FieldSet{
		Dependency:         RelationField{Name: dependency},
		DependencyInverted: RelationField{Name: dependencyInverted},
		Start:              DateField{Name: start},
		Stop:               DateField{Name: stop},
	}
	return fs, fs.Validate()
}

// DefaultFieldSet returns the field set used when none is given.
func DefaultFieldSet() FieldSet {
	fs, _ := NewFieldSet(DefaultDependencyField, DefaultDependencyInvertedField, DefaultStartField, DefaultStopField)
	return fs
}

// Validate checks that every field is named and that the pairs differ.
func (fs FieldSet) Validate() error {
	switch {
	case fs.Dependency.Name == "", fs.DependencyInverted.Name == "":
		return fmt.Errorf("%w: relation fields must be named", ErrInvalidFieldSet)
	case fs.Start.Name == "", fs.Stop.Name == "":
		return fmt.Errorf("%w: date fields must be named", ErrInvalidFieldSet)
	case fs.Dependency.Name == fs.DependencyInverted.Name:
		return fmt.Errorf("%w: dependency and inverse are both %q", ErrInvalidFieldSet, fs.Dependency.Name)
	case fs.Start.Name == fs.Stop.Name:
		return fmt.Errorf("%w: start and stop are both %q", ErrInvalidFieldSet, fs.Start.Name)
	}
	return nil
}
