package twitch

import (
	"strings"

	"github.com/skarger/chatmood/internal/domain"
)

// LineKind tags the result of parsing one inbound IRC line.
type LineKind int

const (
	// LineUnrecognized covers malformed lines and protocol lines we do not
	// handle (MOTD, JOIN confirmations, ...). They are silently dropped.
	LineUnrecognized LineKind = iota
	// LineKeepalive is a server PING probe that must be answered.
	LineKeepalive
	// LineChatPost is a PRIVMSG carrying a chat message.
	LineChatPost
)

// ParsedLine is the tagged result of ParseLine. Event is only meaningful
// when Kind is LineChatPost.
type ParsedLine struct {
	Kind  LineKind
	Event domain.ChatEvent
}

// ParseLine classifies one raw IRC line. Pure function, decoupled from the
// read loop so the wire format is testable on its own.
//
// Chat posts have the shape
//
//	:<user>!<user>@<user>.tmi.twitch.tv PRIVMSG #<channel> :<text>
func ParseLine(raw string) ParsedLine {
	raw = strings.TrimRight(raw, "\r\n")

	if strings.HasPrefix(raw, "PING") {
		return ParsedLine{Kind: LineKeepalive}
	}

	if !strings.HasPrefix(raw, ":") {
		return ParsedLine{Kind: LineUnrecognized}
	}

	parts := strings.SplitN(raw, " ", 4)
	if len(parts) < 4 || parts[1] != "PRIVMSG" {
		return ParsedLine{Kind: LineUnrecognized}
	}

	prefix := strings.TrimPrefix(parts[0], ":")
	user, _, found := strings.Cut(prefix, "!")
	if !found || user == "" {
		return ParsedLine{Kind: LineUnrecognized}
	}

	channel := strings.TrimPrefix(parts[2], "#")
	if channel == "" {
		return ParsedLine{Kind: LineUnrecognized}
	}

	text, found := strings.CutPrefix(parts[3], ":")
	if !found {
		return ParsedLine{Kind: LineUnrecognized}
	}

	return ParsedLine{
		Kind: LineChatPost,
		Event: domain.ChatEvent{
			User:    user,
			Channel: channel,
			Text:    text,
		},
	}
}
