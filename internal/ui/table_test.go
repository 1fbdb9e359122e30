package ui_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/ui"
)

func TestTableRendersAlignedColumns(testInstance *testing.T) {
	renderedTable := ui.NewTable("project", "actual", "expected")
	renderedTable.AppendRow("foo", "feature", "master")
	renderedTable.AppendRow("spam/eggs", "devel", "release")

	require.Equal(testInstance, 2, renderedTable.Len())

	lines := strings.Split(renderedTable.Render(), "\n")
	require.Len(testInstance, lines, 3)
	require.True(testInstance, strings.HasPrefix(lines[0], "project"))
	require.True(testInstance, strings.HasPrefix(lines[1], "foo"))
	require.True(testInstance, strings.HasPrefix(lines[2], "spam/eggs"))

	actualColumnOffset := strings.Index(lines[1], "feature")
	require.Equal(testInstance, actualColumnOffset, strings.Index(lines[2], "devel"))
	require.Equal(testInstance, actualColumnOffset, strings.Index(lines[0], "actual"))
}

func TestTableWithoutRowsRendersHeaderOnly(testInstance *testing.T) {
	renderedTable := ui.NewTable("project", "branch")

	require.Zero(testInstance, renderedTable.Len())
	require.Contains(testInstance, renderedTable.Render(), "project")
}
