package hwconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, file, content string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const hw1 = `[overview]
name = HW 1
cyu = CYU 1
gsheet_name = hw1_data
num_questions = 3

[question1]
name = Induction

[question2]
name = Pigeonhole
star_name = Pigeonhole (Star)
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "hw1.ini", hw1)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "HW 1", cfg.Name)
	assert.Equal(t, "CYU 1", cfg.CYU)
	assert.Equal(t, "hw1_data", cfg.GSheetName)
	assert.Equal(t, 3, cfg.NumQuestions)

	require.Len(t, cfg.Questions, 3)
	assert.Equal(t, &Question{Name: "Induction"}, cfg.Questions[0])
	assert.Equal(t, &Question{Name: "Pigeonhole", StarName: "Pigeonhole (Star)"}, cfg.Questions[1])
	// question3 has no section: a gap, not an error.
	assert.Nil(t, cfg.Questions[2])
}

func TestLoad_MissingRequiredKey(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "bad.ini", "[overview]\nname = HW 9\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestLoad_EmptyCYUAllowed(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "hw.ini", "[overview]\nname = HW 3\ncyu =\ngsheet_name = hw3\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.CYU)
	assert.Equal(t, 0, cfg.NumQuestions)
}

func TestList_NaturalOrder(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.ini", "[overview]\nname = HW 2\ncyu =\ngsheet_name = a\n")
	writeConfig(t, dir, "b.ini", "[overview]\nname = HW 10\ncyu =\ngsheet_name = b\n")
	writeConfig(t, dir, "c.ini", "[overview]\nname = HW 1\ncyu =\ngsheet_name = c\n")

	entries, err := List(dir)
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"HW 1", "HW 2", "HW 10"}, names)
}

func TestList_SkipsNamelessAndKeepsOthers(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "good.ini", "[overview]\nname = HW 1\ncyu =\ngsheet_name = g\n")
	writeConfig(t, dir, "noname.ini", "[overview]\ngsheet_name = x\n")
	writeConfig(t, dir, "garbage.ini", ":::not ini at all:::")

	entries, err := List(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HW 1", entries[0].Name)
}

func TestNaturalLess(t *testing.T) {
	assert.True(t, naturalLess("HW 1", "HW 2"))
	assert.True(t, naturalLess("HW 2", "HW 10"))
	assert.False(t, naturalLess("HW 10", "HW 2"))
	assert.True(t, naturalLess("CYU 3", "HW 1"))
	assert.True(t, naturalLess("HW 1", "HW 1 redo"))
}
