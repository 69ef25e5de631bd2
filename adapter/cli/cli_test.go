package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	ganttapp "github.com/felixgeelhaar/ganttline/internal/app"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/commands"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	container *ganttapp.Container
	master    uuid.UUID
	slave     uuid.UUID
	day       time.Time
}

func setupCLI(t *testing.T) cliFixture {
	t.Helper()
	ctx := context.Background()
	container, err := ganttapp.NewContainer(ctx, &config.Config{
		AppEnv:     "test",
		SQLitePath: filepath.Join(t.TempDir(), "cli.db"),
		UndoLogTTL: time.Hour,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	SetApp(NewApp(
		container.CreateRecordHandler,
		container.LinkRecordsHandler,
		container.RescheduleHandler,
		container.RollbackHandler,
		container.ListRecordsHandler,
		container.ValidateGraphHandler,
		container.ListRescheduleAttemptsHandler,
	))
	t.Cleanup(func() { SetApp(nil) })

	day := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	at := func(h int) *time.Time {
		v := day.Add(time.Duration(h) * time.Hour)
		return &v
	}
	a, err := container.CreateRecordHandler.Handle(ctx, commands.CreateRecordCommand{Model: "project.task", Name: "A", Start: at(0), Stop: at(2)})
	require.NoError(t, err)
	b, err := container.CreateRecordHandler.Handle(ctx, commands.CreateRecordCommand{Model: "project.task", Name: "B", Start: at(1), Stop: at(3)})
	require.NoError(t, err)
	require.NoError(t, container.LinkRecordsHandler.Handle(ctx, commands.LinkRecordsCommand{RecordID: b.RecordID, DependsOnID: a.RecordID}))

	return cliFixture{container: container, master: a.RecordID, slave: b.RecordID, day: day}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

var tokenPattern = regexp.MustCompile(`Undo token: (\S+)`)

func TestCLI_RescheduleThenRollback(t *testing.T) {
	f := setupCLI(t)

	out, err := run(t, "reschedule", "forward", f.master.String(), f.slave.String())
	require.NoError(t, err)
	assert.Contains(t, out, "[success]")
	assert.Contains(t, out, "Moved: 1 record(s)")
	match := tokenPattern.FindStringSubmatch(out)
	require.Len(t, match, 2, out)

	out, err = run(t, "rollback", match[1])
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 1 record(s)")
	assert.Contains(t, out, f.slave.String())

	out, err = run(t, "attempts")
	require.NoError(t, err)
	assert.Contains(t, out, "Reschedule attempts (1)")
	assert.Contains(t, out, "success")
}

func TestCLI_RescheduleRejectsUnrelatedRecords(t *testing.T) {
	f := setupCLI(t)

	_, err := run(t, "reschedule", "backward", f.slave.String(), f.master.String())
	assert.ErrorIs(t, err, domain.ErrRecordsNotRelated)
}

func TestCLI_RescheduleRejectsBadInput(t *testing.T) {
	f := setupCLI(t)

	_, err := run(t, "reschedule", "sideways", f.master.String(), f.slave.String())
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)

	_, err = run(t, "reschedule", "forward", "not-an-id", f.slave.String())
	assert.Error(t, err)
}

func TestCLI_RollbackFromLogFile(t *testing.T) {
	f := setupCLI(t)
	original := f.day.Add(time.Hour)
	data, err := json.Marshal(domain.UndoLog{f.slave: {domain.DefaultStartField: &original}})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "undo.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := run(t, "rollback", "--log", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 1 record(s)")

	rollbackLogFile = ""
	_, err = run(t, "rollback")
	assert.ErrorIs(t, err, domain.ErrUndoLogUnspecified)
}

func TestCLI_GraphValidate(t *testing.T) {
	f := setupCLI(t)

	out, err := run(t, "graph", "validate", "--model", "project.task")
	require.NoError(t, err)
	assert.Contains(t, out, "2 record(s), 1 dependency link(s), no cycle")
	assert.Less(t, bytes.Index([]byte(out), []byte(f.master.String())), bytes.Index([]byte(out), []byte(f.slave.String())))
}

func TestCLI_Health(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "health")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestCLI_RequiresApp(t *testing.T) {
	SetApp(nil)
	_, err := run(t, "attempts")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-03-03T09:00:00Z", "2025-03-03 09:00", "2025-03-03T09:00", "2025-03-03T10:00:00+01:00"} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(*got), in)
	}

	got, err := ParseTime("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseTime("next tuesday")
	assert.Error(t, err)
}

func TestCLI_RescheduleConflictFreeBackwardMovesSlave(t *testing.T) {
	f := setupCLI(t)
	ctx := context.Background()
	at := func(h int) *time.Time {
		v := f.day.Add(time.Duration(h) * time.Hour)
		return &v
	}
	m, err := f.container.CreateRecordHandler.Handle(ctx, commands.CreateRecordCommand{Model: "project.task", Name: "M", Start: at(4), Stop: at(5)})
	require.NoError(t, err)
	s, err := f.container.CreateRecordHandler.Handle(ctx, commands.CreateRecordCommand{Model: "project.task", Name: "S", Start: at(8), Stop: at(9)})
	require.NoError(t, err)
	require.NoError(t, f.container.LinkRecordsHandler.Handle(ctx, commands.LinkRecordsCommand{RecordID: s.RecordID, DependsOnID: m.RecordID}))

	out, err := run(t, "reschedule", "backward", m.RecordID.String(), s.RecordID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "[success]")
	assert.Contains(t, out, "Mode: "+string(domain.ModeConflictFreeBackward))
	assert.Contains(t, out, "Moved: 1 record(s)")
	assert.Contains(t, out, s.RecordID.String())
	assert.NotContains(t, out, m.RecordID.String()+"  was", "the master stays put")
}

func TestCLI_RescheduleHelpCoversBothCases(t *testing.T) {
	out := rescheduleCmd.Long
	assert.Contains(t, out, "When the two records overlap:")
	assert.Contains(t, out, "When they do not overlap:")
	assert.Contains(t, out, "backward moves the records between the two, then the slave, back")
}

func TestPrintResult_ShowsKind(t *testing.T) {
	var out bytes.Buffer
	PrintResult(&out, domain.NewWarningResult(domain.KindNoPossibleAction, domain.MsgNoCandidates))

	assert.Contains(t, out.String(), "[warning] "+domain.MsgNoCandidates)
	assert.Contains(t, out.String(), "Kind: "+string(domain.KindNoPossibleAction))
	assert.NotContains(t, out.String(), "Undo token")

	out.Reset()
	PrintResult(&out, &domain.RescheduleResult{Type: domain.ResultSuccess, Message: "ok"})
	assert.NotContains(t, out.String(), "Kind:")
}
