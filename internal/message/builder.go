// Package message renders outbound chat replies as plain text or XHTML-IM.
package message

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pscheid92/buzzbot/internal/domain"
)

type Mode int

const (
	ModePlain Mode = iota
	ModeMarkup
)

// ParseMode maps the configured format name onto a Mode. Anything but
// "plain" selects markup.
func ParseMode(format string) Mode {
	if strings.EqualFold(format, "plain") {
		return ModePlain
	}
	return ModeMarkup
}

func (m Mode) String() string {
	if m == ModePlain {
		return "plain"
	}
	return "xhtml"
}

const (
	markupLineBreak = "<br></br>"
	markupEnvelope  = `<html xmlns='http://jabber.org/protocol/xhtml-im'>
    <body xmlns="http://www.w3.org/1999/xhtml">
    %s
    </body>
    </html>`
)

// Builder accumulates reply lines in order. The zero value renders plain text.
type Builder struct {
	mode  Mode
	lines []string
}

func NewBuilder(mode Mode) *Builder {
	return &Builder{mode: mode}
}

func (b *Builder) Mode() Mode {
	return b.mode
}

func (b *Builder) Add(line string) *Builder {
	b.lines = append(b.lines, line)
	return b
}

func (b *Builder) Addf(format string, args ...any) *Builder {
	return b.Add(fmt.Sprintf(format, args...))
}

func (b *Builder) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Build renders every accumulated line. Zero lines render "" in plain mode
// and an envelope with an empty body in markup mode.
func (b *Builder) Build() string {
	if b.mode == ModePlain {
		return strings.Join(b.lines, "\n")
	}

	escaped := make([]string, len(b.lines))
	for i, line := range b.lines {
		escaped[i] = escapeText(line)
	}
	return envelope(strings.Join(escaped, markupLineBreak))
}

// BuildFromPost renders a single match notification. Accumulated lines are ignored.
func (b *Builder) BuildFromPost(post domain.Post, searchTerm string) string {
	if b.mode == ModePlain {
		return fmt.Sprintf("%s matched: %s %s", searchTerm, post.Title, post.URL)
	}
	return envelope(fmt.Sprintf("%s matched: <a href='%s'>%s</a>",
		escapeText(searchTerm), escapeText(post.URL), escapeText(post.Title)))
}

func envelope(content string) string {
	return strings.TrimSpace(fmt.Sprintf(markupEnvelope, content))
}

// escapeText makes s safe as XML character data or a quoted attribute value.
// Non-ASCII runes become numeric references so the body stays 7-bit; runes
// XML 1.0 cannot carry at all are dropped.
func escapeText(s string) string {
	s = html.EscapeString(s)

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size == 1:
			continue
		case !isXMLChar(r):
			continue
		case r < utf8.RuneSelf:
			sb.WriteRune(r)
		default:
			sb.WriteString("&#")
			sb.WriteString(strconv.Itoa(int(r)))
			sb.WriteByte(';')
		}
	}
	return sb.String()
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
