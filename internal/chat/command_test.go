package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantCmd Command
	}{
		{"bare command", "help", Command{Name: "help"}},
		{"slash command", "/track", Command{Name: "track"}},
		{"argument", "track foo bar", Command{Name: "track", Argument: "foo bar"}},
		{"whitespace run separator", "track \t  foo", Command{Name: "track", Argument: "foo"}},
		{"trailing whitespace kept", "track  foo bar  ", Command{Name: "track", Argument: "foo bar  "}},
		{"leading whitespace skipped", "   list", Command{Name: "list"}},
		{"case preserved", "POST Hello", Command{Name: "POST", Argument: "Hello"}},
		{"only one slash stripped", "//post x", Command{Name: "/post", Argument: "x"}},
		{"newline separator", "post\nline one\nline two", Command{Name: "post", Argument: "line one\nline two"}},
		{"command with trailing space", "untrack ", Command{Name: "untrack"}},
		{"whitespace only", "   ", Command{}},
		{"symbol", "?", Command{Name: "?"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.raw)
			assert.True(t, ok)
			assert.Equal(t, tt.wantCmd, got)
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	_, ok := Parse("")
	assert.False(t, ok)
}

func TestLookupKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"help", KindHelp},
		{"track", KindTrack},
		{"UNTRACK", KindUntrack},
		{"List", KindList},
		{"about", KindAbout},
		{"POST", KindPost},
		{"pOsT", KindPost},
		{"search", KindUnknown},
		{"?", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupKind(tt.name))
		})
	}
}

func TestCommandKind_SlashAndCaseRouteTheSame(t *testing.T) {
	for _, raw := range []string{"post hi", "/post hi", "POST hi", "/POST hi"} {
		cmd, _ := Parse(raw)
		assert.Equal(t, KindPost, cmd.Kind(), raw)
		assert.Equal(t, "hi", cmd.Argument, raw)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "track", KindTrack.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
