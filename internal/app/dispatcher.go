package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pscheid92/buzzbot/internal/chat"
	"github.com/pscheid92/buzzbot/internal/domain"
	"github.com/pscheid92/buzzbot/internal/message"
)

const (
	helpHeader     = "We all need a little help sometimes"
	unknownCommand = "Sorry, '%s' was not understood. Here is what I can do:"
	apology        = "Sorry, something went wrong while handling your command. Please try again later."
	trackSuccess   = "Tracking: %s with id: %d"
	nothingToTrack = "Nothing to track. Tell me what to look for, e.g. track golang"
	untrackSuccess = "No longer tracking: %s with id: %d"
	untrackFailed  = "Untrack failed. You have no subscription with id: '%s'"
	listEntry      = "Search term: %s with id: %d"
	notTracking    = "You are not tracking anything. Use track [search term] to start."
	aboutWelcome   = "Welcome to %s. A bot for tracking search terms. Find out more at: %s"
	aboutVersion   = "Running version %s"
	postSuccess    = "Posted: %s"
	nothingToPost  = "Nothing to post. Tell me what to say, e.g. post Hello world"
	postNoAccess   = "You (%s) have not given access to your account. Please do so at: %s"
	postIncomplete = "You (%s) did not complete the process for giving access to your account. Please do so at: %s"
)

var helpLines = []string{
	"help Prints out this message",
	"track [search term] Starts tracking the given search term and returns the id for your subscription",
	"untrack [id] Removes your subscription with the given id",
	"list Lists the search terms you are tracking",
	"about Tells you which instance of the bot you are using",
	"post [some message] Posts that message to your account",
}

type DispatcherConfig struct {
	BotAddress     string
	ServiceBaseURL string
	Version        string
	Mode           message.Mode
}

// Dispatcher routes one parsed command to its handler. It keeps no state
// between calls.
type Dispatcher struct {
	tracker *Tracker
	tokens  domain.TokenRepository
	poster  domain.Poster
	cfg     DispatcherConfig
	metrics Metrics
}

func NewDispatcher(tracker *Tracker, tokens domain.TokenRepository, poster domain.Poster, cfg DispatcherConfig, metrics Metrics) *Dispatcher {
	return &Dispatcher{tracker: tracker, tokens: tokens, poster: poster, cfg: cfg, metrics: orNop(metrics)}
}

// Dispatch answers cmd on behalf of the canonical sender. It always returns
// a reply: handler errors and panics become a single apology line.
func (d *Dispatcher) Dispatch(ctx context.Context, sender string, cmd chat.Command) (reply *message.Builder) {
	kind := cmd.Kind()
	d.metrics.CommandHandled(kind.String())

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Command handler panicked", "command", cmd.Name, "sender", sender, "panic", r)
			reply = d.apology()
		}
	}()

	reply = message.NewBuilder(d.cfg.Mode)

	var err error
	switch kind {
	case chat.KindHelp:
		d.help(reply)
	case chat.KindTrack:
		err = d.track(ctx, reply, sender, cmd.Argument)
	case chat.KindUntrack:
		err = d.untrack(ctx, reply, sender, cmd.Argument)
	case chat.KindList:
		err = d.list(ctx, reply, sender)
	case chat.KindAbout:
		d.about(reply)
	case chat.KindPost:
		err = d.post(ctx, reply, sender, cmd.Argument)
	default:
		reply.Addf(unknownCommand, cmd.Name)
		d.help(reply)
	}

	if err != nil {
		slog.ErrorContext(ctx, "Command failed", "command", kind.String(), "sender", sender, "error", err)
		return d.apology()
	}
	return reply
}

// HandleMessage dispatches an inbound message parsed at intake.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg chat.Message) *message.Builder {
	return d.Dispatch(ctx, msg.Sender, msg.Command)
}

func (d *Dispatcher) apology() *message.Builder {
	return message.NewBuilder(d.cfg.Mode).Add(apology)
}

func (d *Dispatcher) help(reply *message.Builder) {
	reply.Add(helpHeader)
	for _, line := range helpLines {
		reply.Add(line)
	}
}

func (d *Dispatcher) track(ctx context.Context, reply *message.Builder, sender, term string) error {
	sub, err := d.tracker.Track(ctx, sender, term)
	if errors.Is(err, domain.ErrInvalidSubscription) {
		reply.Add(nothingToTrack)
		return nil
	}
	if err != nil {
		return err
	}
	reply.Addf(trackSuccess, sub.SearchTerm, sub.ID)
	return nil
}

func (d *Dispatcher) untrack(ctx context.Context, reply *message.Builder, sender, arg string) error {
	idText := strings.TrimSpace(arg)
	sub, err := d.tracker.Untrack(ctx, sender, idText)
	if errors.Is(err, domain.ErrUntrackFailed) {
		reply.Addf(untrackFailed, idText)
		return nil
	}
	if err != nil {
		return err
	}
	reply.Addf(untrackSuccess, sub.SearchTerm, sub.ID)
	return nil
}

func (d *Dispatcher) list(ctx context.Context, reply *message.Builder, sender string) error {
	subs, err := d.tracker.List(ctx, sender)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		reply.Add(notTracking)
		return nil
	}
	for _, sub := range subs {
		reply.Addf(listEntry, sub.SearchTerm, sub.ID)
	}
	return nil
}

func (d *Dispatcher) about(reply *message.Builder) {
	reply.Addf(aboutWelcome, d.cfg.BotAddress, d.cfg.ServiceBaseURL)
	if d.cfg.Version != "" {
		reply.Addf(aboutVersion, d.cfg.Version)
	}
}

// post publishes body verbatim; only the separator after the command was consumed by the parser.
func (d *Dispatcher) post(ctx context.Context, reply *message.Builder, sender, body string) error {
	if strings.TrimSpace(body) == "" {
		reply.Add(nothingToPost)
		return nil
	}

	token, err := d.tokens.FindByEmail(ctx, sender)
	if errors.Is(err, domain.ErrTokenNotFound) {
		reply.Addf(postNoAccess, sender, d.cfg.ServiceBaseURL)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up token: %w", err)
	}

	if token.AccessToken == "" {
		if err := d.tokens.Delete(ctx, sender); err != nil {
			slog.WarnContext(ctx, "Failed to delete incomplete token", "sender", sender, "error", err)
		}
		reply.Addf(postIncomplete, sender, d.cfg.ServiceBaseURL)
		return nil
	}

	url, err := d.poster.Post(ctx, token, body)
	if err != nil {
		return fmt.Errorf("failed to post: %w", err)
	}
	slog.InfoContext(ctx, "Message posted", "sender", sender, "url", url)

	reply.Addf(postSuccess, url)
	return nil
}
