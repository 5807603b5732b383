package check

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"flowc/pkg/config"
	"flowc/pkg/model"
	"flowc/pkg/predicate"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheckAcceptsWellFormedFlow(t *testing.T) {
	dir := t.TempDir()
	nodesPath := writeFile(t, dir, "nodes.yaml", `
tasks:
  - name: Task1
    import: x.y
  - name: Task2
    import: x.z
flows:
  - flow1
`)
	flowPath := writeFile(t, dir, "flow1.yaml", `
flow-definitions:
  - name: flow1
    edges:
      - from: []
        to: [Task1]
      - from: [Task1]
        to: [Task2]
`)

	registry := model.NewRegistry()
	predicate.RegisterBuiltins(registry, predicate.NewExprCache(0))
	sys, err := config.Load(nodesPath, []string{flowPath}, registry)
	require.NoError(t, err)

	warnings, err := System(sys)
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestCheckRejectsUnproducedTask(t *testing.T) {
	dir := t.TempDir()
	nodesPath := writeFile(t, dir, "nodes.yaml", `
tasks:
  - name: Task1
    import: x.y
  - name: Task2
    import: x.z
flows:
  - flow1
`)
	flowPath := writeFile(t, dir, "flow1.yaml", `
flow-definitions:
  - name: flow1
    edges:
      - from: []
        to: [Task1]
      - from: [Task1, Task2]
        to: [Task1]
`)

	registry := model.NewRegistry()
	sys, err := config.Load(nodesPath, []string{flowPath}, registry)
	require.NoError(t, err)

	_, err = System(sys)
	require.Error(t, err)
}

func TestCheckRejectsUnknownStrategy(t *testing.T) {
	dir := t.TempDir()
	nodesPath := writeFile(t, dir, "nodes.yaml", `
tasks:
  - name: Task1
    import: x.y
flows:
  - flow1
`)
	flowPath := writeFile(t, dir, "flow1.yaml", `
flow-definitions:
  - name: flow1
    strategy:
      name: not_a_real_strategy
    edges:
      - from: []
        to: [Task1]
`)

	registry := model.NewRegistry()
	sys, err := config.Load(nodesPath, []string{flowPath}, registry)
	require.NoError(t, err)

	_, err = System(sys)
	require.Error(t, err)
}

func TestCheckRejectsNowaitAlsoSource(t *testing.T) {
	dir := t.TempDir()
	nodesPath := writeFile(t, dir, "nodes.yaml", `
tasks:
  - name: Task1
    import: x.y
  - name: Task2
    import: x.z
flows:
  - flow1
`)
	flowPath := writeFile(t, dir, "flow1.yaml", `
flow-definitions:
  - name: flow1
    nowait: [Task1]
    edges:
      - from: []
        to: [Task1]
      - from: [Task1]
        to: [Task2]
`)

	registry := model.NewRegistry()
	sys, err := config.Load(nodesPath, []string{flowPath}, registry)
	require.NoError(t, err)

	_, err = System(sys)
	require.Error(t, err)
}
