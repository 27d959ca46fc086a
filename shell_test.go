package pdshell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/pdshell"
	"github.com/aretw0/pdshell/pkg/adapters/memory"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/history"
	"github.com/aretw0/pdshell/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShell(t *testing.T, opts ...pdshell.Option) (*pdshell.Shell, *memory.Host, *memory.Console) {
	t.Helper()
	host := memory.NewHost()
	host.OpenCanvas(
		domain.Object{Kind: "tgl", Text: "tgl 15 0 empty empty", HasGUI: true},
		domain.Object{Kind: "text", Text: "metro 200", HasGUI: true},
	)
	console := memory.NewConsole()

	sh, err := pdshell.New(host, append([]pdshell.Option{pdshell.WithConsole(console)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(sh.Close)
	return sh, host, console
}

func TestNew_RequiresHost(t *testing.T) {
	_, err := pdshell.New(nil)
	assert.Error(t, err)
}

func TestShell_EndToEnd(t *testing.T) {
	sh, host, console := newShell(t)
	ctx := context.Background()

	assert.Equal(t, ">", sh.Target())

	// 1. Select the toggle by index
	assert.Empty(t, sh.Execute(ctx, "sel 0"))
	assert.Equal(t, "tgl_1 >", sh.Target())

	// 2. Message with an embedded expression goes to the selection
	assert.Empty(t, sh.Execute(ctx, "color {1+1}"))
	received := host.Canvas().Received("0")
	require.Len(t, received, 1)
	assert.Equal(t, domain.NewMessage("color", "2"), received[0])

	// 3. Out of range index is a single error line, mirrored on the console
	sh.Execute(ctx, ">")
	lines := sh.Execute(ctx, "sel 99")
	assert.Equal(t, []domain.Line{domain.Error("Object index out of bounds")}, lines)
	assert.Contains(t, console.Lines(), domain.Error("Object index out of bounds"))
	assert.Empty(t, host.Canvas().Selection())
}

func TestShell_ConsoleMirrorsOutput(t *testing.T) {
	sh, _, console := newShell(t)

	sh.Execute(context.Background(), "ls")

	assert.Equal(t, []string{"tgl_1", "metro_200_1: metro 200"}, console.Texts())
}

func TestShell_Submit_MultiLine(t *testing.T) {
	sh, host, _ := newShell(t)
	ctx := context.Background()

	lines, complete := sh.Submit(ctx, "{\nfor i = 1, 2 do")
	assert.False(t, complete)
	assert.Nil(t, lines)
	assert.Equal(t, pdshell.LuaTarget, sh.Target())

	_, err := sh.ExecuteComplete(ctx, "{")
	assert.ErrorIs(t, err, domain.ErrIncomplete)

	lines, complete = sh.Submit(ctx, "{\nfor i = 1, 2 do\n  pd.eval(\"canvas obj 0 0 bng\")\nend\n}")
	assert.True(t, complete)
	assert.Empty(t, lines)
	assert.Len(t, host.Canvas().Objects(), 4)
	assert.Equal(t, ">", sh.Target())
}

func TestShell_History(t *testing.T) {
	sh, _, _ := newShell(t)
	ctx := context.Background()

	sh.Execute(ctx, "ls")
	sh.Execute(ctx, "ls")
	sh.Execute(ctx, "{\npd.post('x')\n}")
	sh.Execute(ctx, "sel 0")

	assert.Equal(t, []string{"sel 0", "{\npd.post('x')\n}", "ls"}, sh.History().Entries())

	assert.Equal(t, "sel 0", sh.HistoryOlder())
	assert.Equal(t, "{\npd.post('x')\n}", sh.HistoryOlder())
	assert.Equal(t, pdshell.LuaTarget, sh.Target(), "a multi-line entry switches to the lua prompt")
	assert.Equal(t, "ls", sh.HistoryOlder())
	assert.Equal(t, "ls", sh.HistoryOlder())
	assert.Equal(t, "{\npd.post('x')\n}", sh.HistoryNewer())
	assert.Equal(t, "sel 0", sh.HistoryNewer())
	assert.Equal(t, "tgl_1 >", sh.Target())
	assert.Equal(t, "", sh.HistoryNewer())
}

func TestShell_ClearKeepsClearCommand(t *testing.T) {
	sh, _, console := newShell(t)
	ctx := context.Background()

	sh.Execute(ctx, "ls")
	sh.Execute(ctx, "clear")

	assert.Equal(t, []string{"clear"}, sh.History().Entries())
	assert.Empty(t, console.Lines())
}

func TestShell_HistoryPersistence(t *testing.T) {
	store := memory.NewHistoryStore()
	ctx := context.Background()

	first, _, _ := newShell(t, pdshell.WithHistoryStore(store))
	first.Execute(ctx, "ls")
	first.Execute(ctx, "sel 0")
	require.NoError(t, first.SaveHistory(ctx))

	second, _, _ := newShell(t, pdshell.WithHistoryStore(store))
	require.NoError(t, second.LoadHistory(ctx))
	assert.Equal(t, []string{"sel 0", "ls"}, second.History().Entries())
	assert.Equal(t, "sel 0", second.HistoryOlder())
}

type failingStore struct{}

func (failingStore) Load(context.Context) ([]string, error) { return nil, errors.New("down") }
func (failingStore) Save(context.Context, []string) error   { return errors.New("down") }

func TestShell_HistoryPersistenceErrors(t *testing.T) {
	sh, _, _ := newShell(t, pdshell.WithHistoryStore(failingStore{}))
	ctx := context.Background()

	assert.ErrorContains(t, sh.LoadHistory(ctx), "failed to load history")
	assert.ErrorContains(t, sh.SaveHistory(ctx), "failed to save history")
}

func TestShell_SharedRegistryAndHistory(t *testing.T) {
	reg := registry.NewRegistry()
	defer reg.Close()
	log := history.New()
	ctx := context.Background()

	a, _, _ := newShell(t, pdshell.WithRegistry(reg), pdshell.WithHistory(log), pdshell.WithSessionID("a"))
	b, hostB, _ := newShell(t, pdshell.WithRegistry(reg), pdshell.WithHistory(log), pdshell.WithSessionID("b"))

	a.Execute(ctx, "{ secret = 42 }")
	b.Execute(ctx, "pd v {secret}")

	sent := hostB.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NewMessage("v"), sent[0].Message, "Lua globals are per session")
	assert.Equal(t, 2, log.Len(), "history is shared")

	a.Close()
	assert.Equal(t, []string{"b"}, reg.Sessions())
}

func TestShell_Reset(t *testing.T) {
	sh, host, _ := newShell(t)
	ctx := context.Background()

	sh.Execute(ctx, "{ x = 1 }")
	sh.Reset()
	sh.Execute(ctx, "pd v {x}")

	sent := host.Sent()
	assert.Equal(t, domain.NewMessage("v"), sent[len(sent)-1].Message)
}

func TestShell_TargetListener(t *testing.T) {
	var labels []string
	sh, _, _ := newShell(t, pdshell.WithTargetListener(func(l string) { labels = append(labels, l) }))
	ctx := context.Background()

	sh.Execute(ctx, "sel 0")
	sh.Execute(ctx, "sel 0")
	sh.Execute(ctx, ">")

	assert.Equal(t, []string{"tgl_1 >", ">"}, labels, "only changes are notified")
}

func TestShell_EvalTimeout(t *testing.T) {
	sh, _, _ := newShell(t, pdshell.WithEvalTimeout(50*time.Millisecond))

	lines := sh.Execute(context.Background(), "{ while true do end }")

	require.Len(t, lines, 1)
	assert.Equal(t, domain.SeverityError, lines[0].Severity)
	assert.Empty(t, sh.Execute(context.Background(), "sel 0"), "shell stays usable")
}

func TestShell_Hooks(t *testing.T) {
	var commands []string
	sh, _, _ := newShell(t, pdshell.WithLifecycleHooks(domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) { commands = append(commands, e.Name) },
	}))

	sh.Execute(context.Background(), "ls")
	assert.Equal(t, []string{"ls"}, commands)
}
