//go:build unix

package wrapper

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/flowtrace/internal/observe"
	"github.com/psantana5/flowtrace/pkg/logging"
	"github.com/psantana5/flowtrace/pkg/tracker"
)

func newTracker() *tracker.Tracker {
	cfg := tracker.DefaultConfig()
	cfg.Silent = true
	cfg.Memory = observe.NoMemory{}
	cfg.Logger = logging.Discard()
	return tracker.New(cfg)
}

func TestRunSuccess(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	tr := newTracker()
	var out bytes.Buffer

	res, err := Run(context.Background(), tr, "echo", []string{"hello"}, Options{Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Positive(t, res.PID)
	assert.Equal(t, "hello\n", out.String())

	rec, ok := tr.Snapshot().Find("exec:echo")
	require.True(t, ok)
	assert.True(t, rec.Closed)
	assert.False(t, rec.Failed())
}

func TestRunFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	tr := newTracker()

	res, err := Run(context.Background(), tr, "false", nil, Options{})
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.ExitCode)

	rec, ok := tr.Snapshot().Find("exec:false")
	require.True(t, ok)
	assert.True(t, rec.Failed())
}

func TestRunMissingCommand(t *testing.T) {
	tr := newTracker()

	_, err := Run(context.Background(), tr, "", nil, Options{})
	assert.Error(t, err)
	assert.True(t, tr.Snapshot().Empty())

	_, err = Run(context.Background(), tr, "/definitely/not/here", nil, Options{})
	assert.Error(t, err)
	rec, ok := tr.Snapshot().Find("exec:here")
	require.True(t, ok)
	assert.True(t, rec.Failed())
}
