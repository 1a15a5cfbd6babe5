package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefinition = `
variables:
  foo: bar
builders:
  - type: virtualbox-iso
provisioners:
  - type: file
post-processors:
  - type: vagrant
`

func writeDefinition(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDefinition), 0o644))
	return path
}

func TestRenderCmdWritesTemplate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "template.json")
	cmd := &RenderCmd{Output: out}

	require.NoError(t, cmd.Run(&CLI{Definition: writeDefinition(t)}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		`{"variables":{"foo":"bar"},"builders":[{"type":"virtualbox-iso"}],"provisioners":[{"type":"file"}],"post-processors":[{"type":"vagrant"}]}`,
		string(data))
}

func TestRenderCmdMissingDefinition(t *testing.T) {
	cmd := &RenderCmd{}
	err := cmd.Run(&CLI{Definition: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestRunPipelineDryRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "template.json")

	res, err := runPipeline(t.Context(), pipelineOptions{
		definitionPath: writeDefinition(t),
		output:         out,
		packerBin:      "definitely-not-packer",
		dryRun:         true,
	})
	require.NoError(t, err)
	assert.True(t, res.Status.IsSuccess())

	_, err = os.Stat(out)
	assert.NoError(t, err, "dry run should still persist the template")
}

func TestRunPipelineRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")

	_, err := runPipeline(t.Context(), pipelineOptions{
		definitionPath: writeDefinition(t),
		output:         filepath.Join(dir, "template.json"),
		dryRun:         true,
		historyPath:    dbPath,
	})
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}
