package ident_test

import (
	"testing"

	"flowc/pkg/ident"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	valid := []string{"Task1", "_hidden", "a", "A_b9", "flow_name"}
	for _, name := range valid {
		assert.True(t, ident.Valid(name), "expected %q to be valid", name)
	}

	invalid := []string{"", "1task", "task-name", "task name", "task.name", "9"}
	for _, name := range invalid {
		assert.False(t, ident.Valid(name), "expected %q to be invalid", name)
	}
}

func TestCheck(t *testing.T) {
	assert.NoError(t, ident.Check("task", "Task1"))

	err := ident.Check("flow", "1bad")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "flow")
	assert.Contains(t, err.Error(), "1bad")
}
