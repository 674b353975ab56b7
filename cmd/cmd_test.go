package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateFromCSV(t *testing.T) {
	dir := t.TempDir()
	eq := filepath.Join(dir, "eq.csv")
	def := filepath.Join(dir, "def.csv")
	require.NoError(t, os.WriteFile(eq, []byte("id,type,make,date_code\n1,Battery,Acme,0324\n"), 0o644))
	require.NoError(t, os.WriteFile(def, []byte("equipment_id,column_name,battery_id,deficiency_text,action_text\n"+
		"1,DateCode,3,Aged,Replace\n1,DateCode,5,Aged,Replace\n"), 0o644))

	out, err := execute(t, "generate",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--equipment", eq, "--deficiencies", def,
		"--country", "Canada", "--stdout")
	require.NoError(t, err)

	assert.Contains(t, out, "Battery No: 3,5 : Aged (Date Code: 0324)")
	assert.Contains(t, out, "Field Service Engineer")
}

func TestTemplateThenValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.xlsx")

	out, err := execute(t, "template", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, err = execute(t, "template", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "validate", "--config", filepath.Join(dir, "missing.yaml"), "--workbook", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows validated: 0")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Deficiency Notes Generator")
}

func TestProcessBatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"input_dir: "+in+"\n"+
			"output_dir: "+filepath.Join(dir, "out")+"\n"+
			"input_archive_dir: "+filepath.Join(dir, "in_archive")+"\n"+
			"output_archive_dir: "+filepath.Join(dir, "out_archive")+"\n"+
			"archive_inputs: true\n"), 0o644))

	_, err := execute(t, "template", filepath.Join(in, "a.xlsx"))
	require.NoError(t, err)
	_, err = execute(t, "template", filepath.Join(in, "b.xlsx"))
	require.NoError(t, err)

	out, err := execute(t, "process", "--config", cfgPath, "--workers", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ a.xlsx")
	assert.Contains(t, out, "✓ b.xlsx")
	assert.Contains(t, out, "Successful:      2")
	assert.FileExists(t, filepath.Join(dir, "in_archive", "a.xlsx"))

	summaries, err := filepath.Glob(filepath.Join(dir, "out", "processing_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}
