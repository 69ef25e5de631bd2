package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// FieldFlags holds the --dep-field family of flags.
type FieldFlags struct {
	Dependency         string
	DependencyInverted string
	Start              string
	Stop               string
}

// AddFieldFlags registers the field name flags on cmd.
func AddFieldFlags(cmd *cobra.Command) *FieldFlags {
	f := &FieldFlags{}
	cmd.Flags().StringVar(&f.Dependency, "dep-field", domain.DefaultDependencyField, "predecessor relation field")
	cmd.Flags().StringVar(&f.DependencyInverted, "dep-inv-field", domain.DefaultDependencyInvertedField, "successor relation field")
	cmd.Flags().StringVar(&f.Start, "start-field", domain.DefaultStartField, "start date field")
	cmd.Flags().StringVar(&f.Stop, "stop-field", domain.DefaultStopField, "stop date field")
	return f
}

// FieldSet validates the flags into a field set.
func (f *FieldFlags) FieldSet() (domain.FieldSet, error) {
	return domain.NewFieldSet(f.Dependency, f.DependencyInverted, f.Start, f.Stop)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime reads a date in RFC 3339 or "YYYY-MM-DD HH:MM" (UTC). An empty
// value is nil.
func ParseTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, use RFC 3339 or YYYY-MM-DD HH:MM", value)
}

// ParseID parses a record id argument.
func ParseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid record ID %q: %w", value, err)
	}
	return id, nil
}

// FormatTime renders an optional date for tables.
func FormatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// RequireApp returns the app or an error naming the command that needs it.
func RequireApp(what string) (*App, error) {
	app := GetApp()
	if app == nil {
		return nil, fmt.Errorf("%s requires a database connection", what)
	}
	return app, nil
}
