package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"flowc/pkg/model"
	"flowc/pkg/predicate"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMinimalFlow(t *testing.T) {
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
    edges:
      - from: []
        to: [Task1]
`)

	registry := model.NewRegistry()
	predicate.RegisterBuiltins(registry, predicate.NewExprCache(0))

	sys, err := Load(nodesPath, []string{flowPath}, registry)
	require.NoError(t, err)

	flow := sys.Flows["flow1"]
	require.NotNil(t, flow)
	require.Len(t, flow.Edges, 1)
	require.True(t, flow.Edges[0].IsStarting())
	require.Equal(t, "Task1", flow.Edges[0].NodesTo[0].NodeName())

	ok, err := flow.Edges[0].Predicate.Evaluate(nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConditionalChainRejectsReadonlyStorageWithMessagePredicate(t *testing.T) {
	dir := t.TempDir()
	nodesPath := writeFile(t, dir, "nodes.yaml", `
storages:
  - name: Storage1
    import: x.storage
tasks:
  - name: Task1
    import: x.y
    storage: Storage1
    storage_readonly: true
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
        condition:
          name: fieldEqual
          args:
            key: k
            value: v
`)

	registry := model.NewRegistry()
	predicate.RegisterBuiltins(registry, predicate.NewExprCache(0))

	_, err := Load(nodesPath, []string{flowPath}, registry)
	require.Error(t, err)
}

func TestMissingFlowNameErrors(t *testing.T) {
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
  - name: flow2
    edges:
      - from: []
        to: [Task1]
`)

	registry := model.NewRegistry()
	_, err := Load(nodesPath, []string{flowPath}, registry)
	require.Error(t, err)
	require.IsType(t, &model.UnknownFlowError{}, err)
}
