package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flowc/pkg/model"
)

func buildChainFlow(t *testing.T) *model.Flow {
	task1 := &model.Task{Name: "Task1"}
	task2 := &model.Task{Name: "Task2"}
	flow := &model.Flow{Name: "flow1"}

	startEdge := &model.Edge{NodesTo: []model.Node{task1}, Flow: flow, Predicate: model.AlwaysTrue()}
	chainEdge := &model.Edge{NodesFrom: []model.Node{task1}, NodesTo: []model.Node{task2}, Flow: flow, Predicate: model.AlwaysTrue()}
	flow.Edges = []*model.Edge{startEdge, chainEdge}
	return flow
}

func TestRunExecutesChainInOrder(t *testing.T) {
	flow := buildChainFlow(t)

	runners := map[string]TaskRunner{
		"Task1": func(name string, args map[string]interface{}) (interface{}, error) { return "result1", nil },
		"Task2": func(name string, args map[string]interface{}) (interface{}, error) { return "result2", nil },
	}

	result, err := Run(flow, runners, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Task1", "Task2"}, result.FiredOrder)
	require.Equal(t, "result1", result.Results["flow1/Task1"])
	require.NotEmpty(t, result.ExecutionID)
}

func TestRunMissingRunnerErrors(t *testing.T) {
	flow := buildChainFlow(t)
	runners := map[string]TaskRunner{
		"Task1": func(name string, args map[string]interface{}) (interface{}, error) { return "result1", nil },
	}
	_, err := Run(flow, runners, nil)
	require.Error(t, err)
}
