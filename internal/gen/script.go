package gen

import (
	"strings"
)

// statement is one emitted script unit. Destructive statements are commented
// out under safe mode.
type statement struct {
	text        string
	destructive bool
}

// script accumulates statements and renders them with one blank line between
// every two non-empty units.
type script struct {
	stmts []statement
}

func newScript() *script {
	return &script{}
}

func (s *script) add(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.stmts = append(s.stmts, statement{text: text})
}

func (s *script) addDestructive(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.stmts = append(s.stmts, statement{text: text, destructive: true})
}

func (s *script) render(safeMode bool) string {
	if len(s.stmts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.stmts))
	for _, st := range s.stmts {
		text := st.text
		if safeMode && st.destructive {
			text = commentOut(text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// commentOut prefixes every line of a statement with "-- ".
func commentOut(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "-- ") {
			continue
		}
		lines[i] = "-- " + line
	}
	return strings.Join(lines, "\n")
}
