package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_CapturesOutput(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Invocation{
		Path: "sh",
		Args: []string{"-c", "echo out; echo diag >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, string(res.Output), "out")
	assert.Contains(t, string(res.Output), "diag")
}

func TestExecRunner_NonzeroExit(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Invocation{
		Path: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Contains(t, string(toolErr.Output), "broken")
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, toolErr.Error(), "exited with code 3")
}

func TestExecRunner_Timeout(t *testing.T) {
	start := time.Now()
	_, err := ExecRunner{}.Run(context.Background(), Invocation{
		Path:    "sleep",
		Args:    []string{"5"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Invocation{Path: "definitely-not-a-real-tool"})
	require.Error(t, err)
	var toolErr *ToolError
	assert.False(t, errors.As(err, &toolErr), "a missing binary is not a tool exit")
}
