package domain

// Severity classifies a console line.
type Severity int

const (
	SeverityInfo  Severity = 0
	SeverityError Severity = 1
)

// String returns a short label for the severity.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// Line is one line of output produced by a command.
type Line struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Info creates an informational line.
func Info(text string) Line {
	return Line{Severity: SeverityInfo, Text: text}
}

// Error creates an error line.
func Error(text string) Line {
	return Line{Severity: SeverityError, Text: text}
}

// HasErrors reports whether any line carries error severity.
func HasErrors(lines []Line) bool {
	for _, l := range lines {
		if l.Severity == SeverityError {
			return true
		}
	}
	return false
}
