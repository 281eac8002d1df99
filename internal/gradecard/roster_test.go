package gradecard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/record"
)

// rosterRow builds a roster record with the Andrew ID and Email columns set.
func rosterRow(andrewID string) record.Record {
	r := RosterHeader.New()
	_ = RosterHeader.Set(&r, "Andrew ID", andrewID)
	_ = RosterHeader.Set(&r, "Email", andrewID+"@andrew.cmu.edu")
	return r
}

func TestAddStudents_EmptyStore(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	roster := []record.Record{rosterRow("aa"), rosterRow("bb"), rosterRow("cc")}
	require.NoError(t, svc.AddStudents(context.Background(), roster))

	// Roster sheet was created with its header.
	assert.Contains(t, store.sheets["gc"], RosterSheetName)

	last := store.writes[len(store.writes)-1]
	assert.Equal(t, rosterRangeWrite, last.writeRange)
	require.Len(t, last.rows, 3)
	assert.Equal(t, "aa", last.rows[0][8])
	assert.Equal(t, "bb", last.rows[1][8])
	assert.Equal(t, "cc", last.rows[2][8])
}

func TestAddStudents_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.sheets["gc"] = []string{RosterSheetName}
	svc := newTestService(store)

	roster := []record.Record{rosterRow("aa"), rosterRow("bb")}
	require.NoError(t, svc.AddStudents(context.Background(), roster))
	firstWrites := len(store.writes)

	// Second run with the same roster appends nothing and writes nothing.
	require.NoError(t, svc.AddStudents(context.Background(), roster))
	assert.Equal(t, firstWrites, len(store.writes))
}

func TestAddStudents_AppendsOnlyUnseen(t *testing.T) {
	store := newFakeStore()
	store.sheets["gc"] = []string{RosterSheetName}
	store.setData("gc", rosterRangeWrite, fromRecords([]record.Record{rosterRow("aa")}))
	svc := newTestService(store)

	roster := []record.Record{rosterRow("aa"), rosterRow("bb"), rosterRow("cc")}
	require.NoError(t, svc.AddStudents(context.Background(), roster))

	last := store.writes[len(store.writes)-1]
	require.Len(t, last.rows, 3)
	// Existing rows first, new rows appended in input order.
	assert.Equal(t, "aa", last.rows[0][8])
	assert.Equal(t, "bb", last.rows[1][8])
	assert.Equal(t, "cc", last.rows[2][8])
}

func TestFindRosters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "roster"), 0755))
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err := FindRosters("roster")
	assert.ErrorIs(t, err, ErrNoRostersFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "roster", "s23.csv"), []byte("h\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.csv"), []byte("h\n"), 0644))

	paths, err := FindRosters("roster")
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestReadRoster_SkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	content := "Semester,Course\nS23,15-251\nS23,15-151\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rows, err := ReadRoster(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, record.Record{"S23", "15-251"}, rows[0])
}
