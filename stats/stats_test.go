package stats

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewStartsClock(t *testing.T) {
	s := New()
	assert.True(t, s.Elapsed() >= 0)
}

func TestPrintTableIncludesEveryCounter(t *testing.T) {
	s := New()
	s.Functions = 3
	s.WidenSteps = 2
	s.FailedAsserts = 1

	var buf bytes.Buffer
	s.PrintTable(&buf)

	out := buf.String()
	assert.Contains(t, out, "Functions")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "WidenSteps")
	assert.Contains(t, out, "FailedAsserts")
}

func TestLogSummaryDoesNotPanic(t *testing.T) {
	s := New()
	s.Callsites = 5
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	assert.NotPanics(t, func() { s.LogSummary(log) })
}
