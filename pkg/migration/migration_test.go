package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flowc/pkg/model"
)

func writeFlowFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiffEdgeRemoved(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFlowFile(t, dir, "old.yaml", `
flow-definitions:
  - name: flow1
    edges:
      - from: []
        to: [Task1]
      - from: [Task1]
        to: [Task2]
      - from: [Task2]
        to: [Task3]
`)
	newPath := writeFlowFile(t, dir, "new.yaml", `
flow-definitions:
  - name: flow1
    edges:
      - from: []
        to: [Task1]
      - from: [Task2]
        to: [Task3]
`)

	oldEdges, err := LoadFlowEdges([]string{oldPath})
	require.NoError(t, err)
	newEdges, err := LoadFlowEdges([]string{newPath})
	require.NoError(t, err)

	migrations, err := Diff(oldEdges, newEdges)
	require.NoError(t, err)

	fm := migrations["flow1"]
	require.Nil(t, fm.Remap[1])
	require.NotNil(t, fm.Remap[2])
	require.Equal(t, 1, *fm.Remap[2])
}

func TestNoChangeIsMigrationNotNeeded(t *testing.T) {
	dir := t.TempDir()
	content := `
flow-definitions:
  - name: flow1
    edges:
      - from: []
        to: [Task1]
`
	oldPath := writeFlowFile(t, dir, "old.yaml", content)
	newPath := writeFlowFile(t, dir, "new.yaml", content)

	oldEdges, _ := LoadFlowEdges([]string{oldPath})
	newEdges, _ := LoadFlowEdges([]string{newPath})

	migDir := filepath.Join(dir, "migrations")
	_, err := GenerateAndWrite(migDir, oldEdges, newEdges, time.Unix(0, 0))
	require.ErrorIs(t, err, model.ErrMigrationNotNeeded)
}

func TestReplayDropsNullAndRewritesIndices(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFlowFile(t, dir, "old.yaml", `
flow-definitions:
  - name: flow1
    edges:
      - from: []
        to: [Task1]
      - from: [Task1]
        to: [Task2]
      - from: [Task2]
        to: [Task3]
`)
	newPath := writeFlowFile(t, dir, "new.yaml", `
flow-definitions:
  - name: flow1
    edges:
      - from: []
        to: [Task1]
      - from: [Task2]
        to: [Task3]
`)

	oldEdges, _ := LoadFlowEdges([]string{oldPath})
	newEdges, _ := LoadFlowEdges([]string{newPath})

	migDir := filepath.Join(dir, "migrations")
	_, err := GenerateAndWrite(migDir, oldEdges, newEdges, time.Unix(0, 0))
	require.NoError(t, err)

	msg := &Message{FlowName: "flow1", MigrationVersion: 0, WaitingEdges: []int{1, 2}}
	nodesToStart, err := Replay(migDir, msg)
	require.NoError(t, err)
	require.Equal(t, []int{1}, msg.WaitingEdges)
	require.Equal(t, 1, msg.MigrationVersion)
	require.Equal(t, []string{"Task2"}, nodesToStart)
}

func TestReplayIdempotentAtHighestVersion(t *testing.T) {
	dir := t.TempDir()
	msg := &Message{FlowName: "flow1", MigrationVersion: 5, WaitingEdges: []int{0}}
	nodesToStart, err := Replay(dir, msg)
	require.NoError(t, err)
	require.Equal(t, []int{0}, msg.WaitingEdges)
	require.Equal(t, 5, msg.MigrationVersion)
	require.Empty(t, nodesToStart)
}
