package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	require.NoError(t, os.MkdirAll(fm.InputDir, 0o755))
	require.NoError(t, os.MkdirAll(fm.OutputDir, 0o755))
	return fm
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGenerateOutputFileName(t *testing.T) {
	at := time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)
	name := GenerateOutputFileName("notes_{job}_{timestamp}_{uuid}", map[string]string{"job": "4711"}, at)

	re := regexp.MustCompile(`^notes_4711_20240115_143022_[0-9a-f-]{36}\.html$`)
	assert.Regexp(t, re, name)

	assert.Equal(t, "a_b.HTML", GenerateOutputFileName("{original}.HTML", map[string]string{"original": "a/b"}, at))
	assert.Equal(t, "job_a_b.html", GenerateOutputFileName("job_{job}", map[string]string{"job": " a/b "}, at))
	assert.Equal(t, "d_20240115.html", GenerateOutputFileName("d_{date}", nil, at))
}

func TestGenerateOutputFileName_ValuesNotExpanded(t *testing.T) {
	at := time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)
	params := map[string]string{"job": "{original}", "original": "{date}"}

	for i := 0; i < 20; i++ {
		assert.Equal(t, "{original}_{date}_20240115.html",
			GenerateOutputFileName("{job}_{original}_{date}", params, at))
	}
}

func TestGenerateOutputFileName_Unique(t *testing.T) {
	a := GenerateOutputFileName("{uuid}", nil, time.Now())
	b := GenerateOutputFileName("{uuid}", nil, time.Now())
	assert.NotEqual(t, a, b)
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	writeFile(t, filepath.Join(fm.InputDir, "b.xlsx"), "x")
	writeFile(t, filepath.Join(fm.InputDir, "a.xlsx"), "x")
	writeFile(t, filepath.Join(fm.InputDir, "~$a.xlsx"), "lock")
	writeFile(t, filepath.Join(fm.InputDir, "notes.csv"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "dir.xlsx"), 0o755))

	files, err := fm.DiscoverInputFiles("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.xlsx"),
		filepath.Join(fm.InputDir, "b.xlsx"),
	}, files)
}

func TestArchiveInputFile(t *testing.T) {
	fm := newTestManager(t)
	src := filepath.Join(fm.InputDir, "job.csv")
	writeFile(t, src, "id,type\n")

	dst, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "job.csv"), dst)
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}

func TestArchiveOutputFile_TimestampSubdirs(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true
	fm.Now = func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }

	src := filepath.Join(fm.OutputDir, "notes.html")
	writeFile(t, src, "<html></html>")

	dst, err := fm.ArchiveOutputFile(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(fm.OutputArchiveDir, "2024", "01", "15", "notes.html"), dst)
	assert.FileExists(t, src)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestWriteWarningLog(t *testing.T) {
	fm := newTestManager(t)
	notes := filepath.Join(fm.OutputDir, "notes_1.html")

	path, err := WriteWarningLog(nil, notes)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteWarningLog([]LogEntry{
		{Sheet: "deficiencies", Rule: "unknown_equipment", Message: "not in job", RowNumber: 3, FieldName: "equipment_id", FieldValue: "9", EquipmentID: 9},
	}, notes)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.OutputDir, "notes_1_warnings.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total Warnings: 1")
	assert.Contains(t, string(data), "Row Number:     3")
	assert.Contains(t, string(data), "Equipment ID:   9")
}

func TestWriteSummaryLog(t *testing.T) {
	fm := newTestManager(t)
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	fm.Now = func() time.Time { return start }

	path, err := fm.WriteSummaryLog(ProcessingSummary{
		StartTime:      start,
		EndTime:        start.Add(2 * time.Second),
		TotalJobs:      2,
		SuccessfulJobs: 1,
		FailedJobs:     1,
		ProcessedJobs:  []ProcessedJobInfo{{InputFile: "a.xlsx", OutputFile: "notes_a.html", Equipment: 4}},
		FailedJobsList: []FailedJobInfo{{InputFile: "b.xlsx", ErrorMessage: "sheet missing"}},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.OutputDir, "processing_summary_20240115_090000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Duration:        2s")
	assert.Contains(t, string(data), "Output:       notes_a.html")
	assert.Contains(t, string(data), "Error: sheet missing")
}

func TestCleanOldArchives(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.html")
	fresh := filepath.Join(dir, "fresh.html")
	writeFile(t, old, "x")
	writeFile(t, fresh, "x")

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := CleanOldArchives(dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	assert.False(t, FileExists(path))
	writeFile(t, path, "")
	assert.True(t, FileExists(path))
}
