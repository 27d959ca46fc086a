package runner_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/pdshell"
	"github.com/aretw0/pdshell/pkg/adapters/memory"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShell(t *testing.T) (*pdshell.Shell, *memory.Canvas) {
	t.Helper()
	host := memory.NewHost()
	canvas := host.OpenCanvas(
		domain.Object{Kind: "tgl", Text: "tgl", HasGUI: true},
		domain.Object{Kind: "text", Text: "metro 200", HasGUI: true},
	)
	sh, err := pdshell.New(host)
	require.NoError(t, err)
	t.Cleanup(sh.Close)
	return sh, canvas
}

func run(t *testing.T, sh runner.Shell, input string, opts ...runner.Option) string {
	t.Helper()
	var out bytes.Buffer
	opts = append([]runner.Option{
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(input), &out)),
	}, opts...)
	r := runner.NewRunner(opts...)
	require.NoError(t, r.Run(context.Background(), sh))
	return out.String()
}

func TestRunner_Commands(t *testing.T) {
	sh, canvas := newShell(t)

	out := run(t, sh, "ls\nsel 0\nset 1\nexit\nbang\n")

	assert.Contains(t, out, "> tgl_1\n")
	assert.Contains(t, out, "metro_200_1: metro 200")
	assert.Contains(t, out, "tgl_1 > ", "prompt follows the selection")
	assert.Equal(t, "[set 1]", fmt.Sprint(canvas.Received("1")), "nothing runs after exit")
}

func TestRunner_ErrorsArePrinted(t *testing.T) {
	sh, _ := newShell(t)

	out := run(t, sh, "sel 99\n")
	assert.Contains(t, out, "error: ")
}

func TestRunner_MultiLineBlock(t *testing.T) {
	sh, canvas := newShell(t)

	input := strings.Join([]string{
		"{",
		"x = 21",
		"}",
		"sel 0",
		"set {x * 2}",
	}, "\n") + "\n"
	out := run(t, sh, input)

	assert.Equal(t, 2, strings.Count(out, runner.ContinuationPrompt))
	assert.Equal(t, "[set 42]", fmt.Sprint(canvas.Received("1")))
	assert.Equal(t, "{\nx = 21\n}", sh.History().At(2), "the block is one history entry")
}

func TestRunner_PendingBlockDiscardedAtEOF(t *testing.T) {
	sh, _ := newShell(t)

	out := run(t, sh, "{\nx = 1\n")
	assert.Contains(t, out, "error: Incomplete input discarded")
	assert.Equal(t, 0, sh.History().Len())
}

func TestRunner_BlankLinesAndBanner(t *testing.T) {
	sh, _ := newShell(t)

	out := run(t, sh, "\n   \nquit\n", runner.WithBanner("pdshell ready"))
	assert.True(t, strings.HasPrefix(out, "pdshell ready\n"))
	assert.Equal(t, 0, sh.History().Len())
}

func TestRunner_InputRejected(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "10")
	sh, _ := newShell(t)

	out := run(t, sh, "sel 0 0123456789\n")
	assert.Contains(t, out, "input exceeds maximum allowed size")
	assert.Equal(t, 0, sh.History().Len())
}

func TestRunner_OversizedBlockDiscarded(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "16")
	sh, _ := newShell(t)

	// Every line fits the limit; the block reaches it on its fourth line.
	out := run(t, sh, "{\nx = 1\ny = 2\nz = 3\nls\n")

	assert.Contains(t, out, "error: input exceeds maximum allowed size: size=19 limit=16")
	assert.Equal(t, 3, strings.Count(out, runner.ContinuationPrompt))
	assert.Contains(t, out, "tgl_1", "input after the rejected block runs normally")
	assert.Equal(t, []string{"ls"}, sh.History().Entries())
}

func TestRunner_ContextCancel(t *testing.T) {
	sh, _ := newShell(t)

	pr, pw := io.Pipe()
	defer pw.Close()

	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(pr, io.Discard)))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, sh) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestIsExit(t *testing.T) {
	assert.True(t, runner.IsExit("exit"))
	assert.True(t, runner.IsExit(" quit "))
	assert.False(t, runner.IsExit("exit now"))
}
