package shared_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/manifold/internal/repos/shared"
)

func TestWriterReporterPrintf(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	reporter := shared.NewWriterReporter(&outputBuffer)

	reporter.Printf("* (%d/%d) %s\n", 1, 2, "foo")

	require.Equal(testInstance, "* (1/2) foo\n", outputBuffer.String())
}

func TestWriterReporterWithoutWriterDiscards(testInstance *testing.T) {
	reporter := shared.NewWriterReporter(nil)

	require.NotPanics(testInstance, func() {
		reporter.Printf("%s\n", "ignored")
	})
}
