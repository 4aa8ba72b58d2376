package rowform

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter colours JSON with a chroma style rendered through lipgloss.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

// NewHighlighter returns a JSON highlighter for the named chroma style. An
// unknown style falls back to chroma's default.
func NewHighlighter(styleName string) *Highlighter {
	l := lexers.Get("JSON")
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{
		lexer: chroma.Coalesce(l),
		style: styles.Get(styleName),
	}
}

// Highlight returns src with every token styled. Newlines are emitted as-is
// so the text can be measured line by line.
func (h *Highlighter) Highlight(src string) string {
	iter, err := h.lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var b strings.Builder
	b.Grow(len(src) * 2)
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		style, ok := h.styleFor(tok.Type)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		lines := strings.Split(tok.Value, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(style.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func (h *Highlighter) styleFor(tt chroma.TokenType) (lipgloss.Style, bool) {
	if tt == chroma.Text || tt == chroma.TextWhitespace {
		return lipgloss.Style{}, false
	}
	entry := h.style.Get(tt)
	if !entry.Colour.IsSet() {
		return lipgloss.Style{}, false
	}
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(entry.Colour.String()))
	if entry.Bold == chroma.Yes {
		s = s.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		s = s.Italic(true)
	}
	return s, true
}
