// Package chat turns inbound chat bodies into typed commands.
package chat

import (
	"strings"
	"unicode"
)

// Command is one tokenised chat body. Name keeps the case it was typed in;
// Argument is never trimmed beyond the separator between the two.
type Command struct {
	Name     string
	Argument string
}

// Parse splits raw into a command token and the verbatim remainder that
// follows the first whitespace run. A single leading "/" on the token is
// dropped. ok is false only for empty input.
func Parse(raw string) (cmd Command, ok bool) {
	if raw == "" {
		return Command{}, false
	}

	text := strings.TrimLeftFunc(raw, unicode.IsSpace)
	end := strings.IndexFunc(text, unicode.IsSpace)
	if end == -1 {
		end = len(text)
	}

	cmd.Name = strings.TrimPrefix(text[:end], "/")
	cmd.Argument = strings.TrimLeftFunc(text[end:], unicode.IsSpace)
	return cmd, true
}

// Kind is the closed set of commands the bot answers.
type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindTrack
	KindUntrack
	KindList
	KindAbout
	KindPost
)

var kindNames = map[string]Kind{
	"help":    KindHelp,
	"track":   KindTrack,
	"untrack": KindUntrack,
	"list":    KindList,
	"about":   KindAbout,
	"post":    KindPost,
}

// LookupKind matches name against the permitted commands, ignoring case.
func LookupKind(name string) Kind {
	if k, ok := kindNames[strings.ToLower(name)]; ok {
		return k
	}
	return KindUnknown
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

func (c Command) Kind() Kind {
	return LookupKind(c.Name)
}
