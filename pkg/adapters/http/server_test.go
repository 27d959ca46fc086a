package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/pdshell"
	"github.com/aretw0/pdshell/pkg/adapters/memory"
	"github.com/aretw0/pdshell/pkg/domain"
	"github.com/aretw0/pdshell/pkg/history"
	"github.com/aretw0/pdshell/pkg/observability"
	"github.com/aretw0/pdshell/pkg/registry"
	"github.com/aretw0/pdshell/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	host    *memory.Host
	log     *history.Log
	metrics *observability.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		host:    memory.NewHost(),
		log:     history.New(),
		metrics: observability.NewMetrics(),
	}
	f.host.OpenCanvas(
		domain.Object{Kind: "tgl", Text: "tgl 15 0", HasGUI: true},
		domain.Object{Kind: "text", Text: "metro 200", HasGUI: true},
	)

	reg := registry.NewRegistry()
	m := session.NewManager(func(id string) (*pdshell.Shell, error) {
		return pdshell.New(f.host,
			pdshell.WithSessionID(id),
			pdshell.WithRegistry(reg),
			pdshell.WithHistory(f.log),
			pdshell.WithLifecycleHooks(f.metrics.Hooks()),
		)
	})
	t.Cleanup(func() {
		m.Close()
		reg.Close()
	})

	f.handler = NewHandler(m, WithHistory(f.log), WithMetrics(f.metrics.Handler()))
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) createSession(t *testing.T) string {
	t.Helper()
	w := f.do(t, "POST", "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["session_id"])
	assert.Equal(t, ">", resp["target"])
	return resp["session_id"]
}

func (f *fixture) execute(t *testing.T, id, command string) (int, ExecuteResponse) {
	t.Helper()
	body, _ := json.Marshal(ExecuteRequest{Command: command})
	w := f.do(t, "POST", "/sessions/"+id+"/execute", string(body))

	var resp ExecuteResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do(t, "GET", "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), pdshell.Version)
}

func TestExecute(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	code, resp := f.execute(t, id, "sel 0")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Lines)
	assert.Equal(t, "tgl_1 >", resp.Target)

	code, resp = f.execute(t, id, "ls")
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, resp.Lines)
	assert.Equal(t, "info", resp.Lines[0].Severity)

	w := f.do(t, "GET", "/sessions/"+id+"/target", "")
	assert.JSONEq(t, `{"target":"tgl_1 >"}`, w.Body.String())
}

func TestExecute_ErrorLines(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	code, resp := f.execute(t, id, "sel 99")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "error", resp.Lines[0].Severity)
}

func TestExecute_LuaOutput(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	code, resp := f.execute(t, id, `{ pd.post("posted") pd.eval("sel 99") }`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []LineDTO{
		{Severity: "info", Text: "posted"},
		{Severity: "error", Text: "Object index out of bounds"},
	}, resp.Lines)
}

func TestExecute_Incomplete(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	code, _ := f.execute(t, id, "{ for i=1,3 do")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestExecute_Rejections(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	t.Run("Unknown Session", func(t *testing.T) {
		code, _ := f.execute(t, "missing", "ls")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("Bad Body", func(t *testing.T) {
		w := f.do(t, "POST", "/sessions/"+id+"/execute", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Oversized Input", func(t *testing.T) {
		code, _ := f.execute(t, id, strings.Repeat("x", 10000))
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestSessions_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	w := f.do(t, "GET", "/sessions", "")
	assert.Contains(t, w.Body.String(), id)

	w = f.do(t, "DELETE", "/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "DELETE", "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "GET", "/sessions/"+id+"/target", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	f.execute(t, id, "ls")
	f.execute(t, id, "sel 0")

	w := f.do(t, "GET", "/history", "")
	assert.JSONEq(t, `{"entries":["sel 0","ls"]}`, w.Body.String())

	w = f.do(t, "GET", "/history/1", "")
	assert.JSONEq(t, `{"index":1,"command":"ls"}`, w.Body.String())

	w = f.do(t, "GET", "/history/7", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "DELETE", "/history", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, f.log.Len())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)
	f.execute(t, id, "ls")

	w := f.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pdshell_commands_total")
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}
	assert.Equal(t, "connected", readData())

	code, _ := f.execute(t, id, "sel 99")
	require.Equal(t, http.StatusOK, code)

	data := readData()
	assert.Contains(t, data, `"severity":"error"`)
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/sessions/nope/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	sm.Broadcast("s", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
}
