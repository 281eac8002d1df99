package gradecard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedExport(store *fakeStore, ids ...string) {
	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = exportRow(id)
	}
	store.setData("gc", exportRangeRead, rows)
}

func copiedTo(copies []copyCall) []string {
	out := make([]string, len(copies))
	for i, c := range copies {
		out[i] = c.dstID
	}
	return out
}

func TestUpdateViews_ResumeMarker(t *testing.T) {
	store := newFakeStore()
	seedExport(store, "a", "b", "c")
	svc := newTestService(store)

	views := []string{"Dashboard", "Scores"}
	err := svc.UpdateViews(context.Background(), views, []Agent{AgentStudent}, []string{"a", "b", "c"}, "b")
	require.NoError(t, err)

	// Resume at b touches exactly b then c, in stored order, even though the
	// permit-list includes a.
	assert.Equal(t, []string{"ss-b", "ss-c"}, copiedTo(store.copies))
	assert.Equal(t, "tmpl", store.copies[0].srcID)
	assert.Equal(t, views, store.copies[0].srcNames)
	assert.Equal(t, views, store.copies[0].dstNames)

	// Touched rows get a fresh timestamp, untouched rows keep the old one.
	last := store.writes[len(store.writes)-1]
	assert.Equal(t, exportRangeWrite, last.writeRange)
	assert.Equal(t, "old", last.rows[0][4])
	assert.Equal(t, "2023-02-01 12:00:00.000000", last.rows[1][4])
	assert.Equal(t, "2023-02-01 12:00:00.000000", last.rows[2][4])
}

func TestUpdateViews_PermitList(t *testing.T) {
	store := newFakeStore()
	seedExport(store, "a", "b", "c")
	svc := newTestService(store)

	err := svc.UpdateViews(context.Background(), []string{"Scores"}, []Agent{AgentStudent}, []string{"c"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ss-c"}, copiedTo(store.copies))
}

func TestUpdateViews_NilPermitMeansAll(t *testing.T) {
	store := newFakeStore()
	seedExport(store, "a", "b")
	svc := newTestService(store)

	err := svc.UpdateViews(context.Background(), []string{"Scores"}, []Agent{AgentStudent}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ss-a", "ss-b"}, copiedTo(store.copies))
}

func TestUpdateViews_TAAgentUsesTACard(t *testing.T) {
	store := newFakeStore()
	seedExport(store, "a")
	svc := newTestService(store)

	err := svc.UpdateViews(context.Background(), []string{"Scores"}, []Agent{AgentTA}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ta-a"}, copiedTo(store.copies))
}

func TestUpdateViews_FullRewriteEvenWhenNothingTouched(t *testing.T) {
	store := newFakeStore()
	seedExport(store, "a", "b")
	svc := newTestService(store)

	// Permit-list matches nothing; the export range is still rewritten.
	err := svc.UpdateViews(context.Background(), []string{"Scores"}, []Agent{AgentStudent}, []string{"zz"}, "")
	require.NoError(t, err)
	assert.Empty(t, store.copies)
	require.NotEmpty(t, store.writes)
	assert.Equal(t, exportRangeWrite, store.writes[len(store.writes)-1].writeRange)
}

func TestUpdateViews_TruncatesStaleColumns(t *testing.T) {
	store := newFakeStore()
	store.setData("gc", exportRangeRead, [][]string{exportRow("a", "stale1", "stale2")})
	svc := newTestService(store)

	err := svc.UpdateViews(context.Background(), []string{"Scores"}, []Agent{AgentStudent}, nil, "")
	require.NoError(t, err)

	last := store.writes[len(store.writes)-1]
	for _, row := range last.rows {
		assert.LessOrEqual(t, len(row), len(ExportHeader))
	}
}
