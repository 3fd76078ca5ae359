package diag

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectingReporterRecordsInOrder(t *testing.T) {
	c := &CollectingReporter{}
	c.Report(Position{Line: 1, Column: 2}, SeverityWarning, "dup", "v is already defined")
	c.Report(Position{}, SeverityError, "bad", "boom")

	require.Len(t, c.Diagnostics, 2)
	assert.Equal(t, "dup", c.Diagnostics[0].Title)
	assert.Equal(t, SeverityWarning, c.Diagnostics[0].Severity)
	assert.Equal(t, SeverityError, c.Diagnostics[1].Severity)
}

func TestNopReporterDiscardsEverything(t *testing.T) {
	assert.NotPanics(t, func() {
		NopReporter{}.Report(Position{}, SeverityError, "t", "m")
	})
}

func TestPositionStringUnknownWhenZero(t *testing.T) {
	assert.Equal(t, "<unknown>", Position{}.String())
	assert.Equal(t, "3:4", Position{Line: 3, Column: 4}.String())
}

func TestLogrusReporterLogsAtSeverity(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	r := NewLogrusReporter(log)
	r.Report(Position{Line: 5}, SeverityWarning, "dup", "v is already defined")

	assert.Contains(t, buf.String(), "v is already defined")
	assert.Contains(t, buf.String(), "warning")
}

func TestNewLogrusReporterDefaultsToStandardLogger(t *testing.T) {
	r := NewLogrusReporter(nil)
	assert.Equal(t, logrus.StandardLogger(), r.Log)
}
