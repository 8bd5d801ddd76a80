package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger(&out, &errOut, "media", false)

	l.Debugf("hidden %d", 1)
	l.Infof("loaded %q", "smoke")
	l.Warnf("parameter %q is unused", "g")
	l.Errorf("failed")

	assert.NotContains(t, out.String(), "DEBUG")
	assert.Contains(t, out.String(), `[media] INFO: loaded "smoke"`)
	assert.Contains(t, errOut.String(), `[media] WARN: parameter "g" is unused`)
	assert.Contains(t, errOut.String(), "[media] ERROR: failed")
	assert.NotContains(t, errOut.String(), "INFO")
}

func TestDefaultLogger_SetDebug(t *testing.T) {
	var out bytes.Buffer
	l := NewWriterLogger(&out, &out, "", false)

	l.Debugf("first")
	assert.Empty(t, out.String())

	l.SetDebug(true)
	l.Debugf("second")
	assert.Contains(t, out.String(), "DEBUG: second")
	assert.NotContains(t, out.String(), "[", "no prefix is written when none is set")

	l.SetDebug(false)
	out.Reset()
	l.Debugf("third")
	assert.Empty(t, out.String())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Debugf("x")
		l.Infof("x")
		l.Warnf("x")
		l.Errorf("x")
	})
}
