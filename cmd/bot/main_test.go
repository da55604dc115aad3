package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "audit"}, names)
}

func TestMigrateRejectsUnknownAction(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "down"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migrate action")
}
