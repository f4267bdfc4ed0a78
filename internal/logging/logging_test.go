package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestErrorfLogsAndReturnsError(t *testing.T) {
	var buf bytes.Buffer
	log := New(logrus.DebugLevel)
	log.SetOutput(&buf)

	err := Errorf(log, "object %s missing", "deadbeef")
	require.EqualError(t, err, "object deadbeef missing")
	require.Contains(t, buf.String(), "object deadbeef missing")
}

func TestTrackerOnlyLogsWhenDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	log := New(logrus.DebugLevel)
	log.SetOutput(&buf)

	silent := NewTracker(log, false)
	silent.Step("phase one")
	require.Empty(t, buf.String())

	loud := NewTracker(log, true)
	loud.Step("phase two")
	require.Contains(t, buf.String(), "phase two")
}
