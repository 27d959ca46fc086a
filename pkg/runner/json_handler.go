package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/pdshell/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
//
// Each input line is either a JSON string, an object {"command": "..."} or raw text.
// Each command's output is emitted as one object {"lines": [...]}.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// JSONOutput is one emitted record.
type JSONOutput struct {
	Lines []JSONLine `json:"lines"`
}

// JSONLine is the wire form of a console line.
type JSONLine struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

// Input reads one JSON line. The prompt is not shown.
func (h *JSONHandler) Input(ctx context.Context, prompt string) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}

	var req struct {
		Command *string `json:"command"`
	}
	if err := json.Unmarshal([]byte(text), &req); err == nil && req.Command != nil {
		return *req.Command, nil
	}

	// Fallback: return raw text
	return text, nil
}

// Output emits the lines as a single JSON record.
func (h *JSONHandler) Output(ctx context.Context, lines []domain.Line) error {
	out := JSONOutput{Lines: make([]JSONLine, len(lines))}
	for i, l := range lines {
		out.Lines[i] = JSONLine{Severity: l.Severity.String(), Text: l.Text}
	}
	return h.Encoder.Encode(out)
}
