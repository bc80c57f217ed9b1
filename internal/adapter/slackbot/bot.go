// Package slackbot exposes the generation pipeline over Slack. A slash
// command produces samples on demand and a daily reminder nudges the
// team to use it.
package slackbot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
	"github.com/mdrews/pentestgen/internal/domain"
)

// Synthesizer produces samples for slash command requests.
type Synthesizer interface {
	GenerateRecords(ctx context.Context, count int) ([]domain.Record, error)
	GenerateQueries(ctx context.Context, count int) ([]string, error)
}

// Messenger is the subset of the Slack Web API the bot posts through.
// Replies go to a DM with the requester, so it also opens conversations.
type Messenger interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
}

// Options configures command limits.
type Options struct {
	DefaultCount int
	MaxCount     int
}

// Bot handles Socket Mode events for the /query slash command.
type Bot struct {
	socket    *socketmode.Client
	messenger Messenger
	synth     Synthesizer
	logger    llmhttp.Logger
	opts      Options
}

// New constructs a Bot. The socket client may be nil in tests that only
// exercise parsing and formatting.
func New(socket *socketmode.Client, messenger Messenger, synth Synthesizer, logger llmhttp.Logger, opts Options) *Bot {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = 1
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = 5
	}
	return &Bot{
		socket:    socket,
		messenger: messenger,
		synth:     synth,
		logger:    logger,
		opts:      opts,
	}
}

// Run processes Socket Mode events until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	go func() {
		for evt := range b.socket.Events {
			switch evt.Type {
			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				b.socket.Ack(*evt.Request)
				go b.handleSlashCommand(ctx, cmd)
			case socketmode.EventTypeConnectionError:
				if b.logger != nil {
					b.logger.LogWarning(ctx, "slack connection error", map[string]interface{}{
						"event": string(evt.Type),
					})
				}
			}
		}
	}()

	return b.socket.RunContext(ctx)
}

func (b *Bot) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	if cmd.Command != "/query" {
		return
	}

	// Results go to a DM so long outputs do not flood shared channels.
	dm, _, _, err := b.messenger.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{cmd.UserID},
	})
	if err != nil {
		if b.logger != nil {
			b.logger.LogWarning(ctx, "slack open conversation failed", map[string]interface{}{"error": err.Error()})
		}
		return
	}

	req, err := ParseCommandArgs(cmd.Text, b.opts.DefaultCount, b.opts.MaxCount)
	if err != nil {
		b.post(ctx, dm.ID, fmt.Sprintf(":warning: %v", err))
		return
	}

	noun := "sample"
	if req.Count > 1 {
		noun = "samples"
	}
	channel, ts, err := b.messenger.PostMessageContext(ctx, dm.ID,
		slack.MsgOptionText(fmt.Sprintf(":hourglass: Generating %d %s...", req.Count, noun), false))
	if err != nil {
		if b.logger != nil {
			b.logger.LogWarning(ctx, "slack post failed", map[string]interface{}{"error": err.Error()})
		}
		return
	}

	text := b.generate(ctx, req)
	if _, _, _, err := b.messenger.UpdateMessageContext(ctx, channel, ts, slack.MsgOptionText(text, false)); err != nil {
		if b.logger != nil {
			b.logger.LogWarning(ctx, "slack update failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (b *Bot) generate(ctx context.Context, req CommandRequest) string {
	if req.QueryOnly {
		queries, err := b.synth.GenerateQueries(ctx, req.Count)
		if err != nil {
			return fmt.Sprintf(":x: Generation failed: %v", err)
		}
		return FormatQueries(queries)
	}

	records, err := b.synth.GenerateRecords(ctx, req.Count)
	if err != nil {
		return fmt.Sprintf(":x: Generation failed: %v", err)
	}
	return FormatRecords(records)
}

func (b *Bot) post(ctx context.Context, channelID, text string) {
	if _, _, err := b.messenger.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false)); err != nil {
		if b.logger != nil {
			b.logger.LogWarning(ctx, "slack post failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// CommandRequest is the parsed form of the /query arguments.
type CommandRequest struct {
	Count     int
	QueryOnly bool
}

// ParseCommandArgs parses "/query [-c N] [-q]" text. The count is
// clamped to maxCount so a single command cannot monopolize the backend.
func ParseCommandArgs(text string, defaultCount, maxCount int) (CommandRequest, error) {
	req := CommandRequest{Count: defaultCount}

	fields := strings.Fields(text)
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "-c", "--count":
			if i+1 >= len(fields) {
				return CommandRequest{}, fmt.Errorf("`-c` requires a number, e.g. `/query -c 3`")
			}
			i++
			n, err := strconv.Atoi(fields[i])
			if err != nil || n < 1 {
				return CommandRequest{}, fmt.Errorf("`-c` expects a positive number, got %q", fields[i])
			}
			req.Count = n
		case "-q", "--query-only":
			req.QueryOnly = true
		default:
			return CommandRequest{}, fmt.Errorf("unknown argument %q; usage: `/query [-c N] [-q]`", fields[i])
		}
	}

	if req.Count > maxCount {
		req.Count = maxCount
	}
	return req, nil
}

// FormatRecords renders records as Slack-friendly JSON code blocks.
func FormatRecords(records []domain.Record) string {
	if len(records) == 0 {
		return ":x: No samples were generated."
	}

	var sb strings.Builder
	for i, rec := range records {
		pretty, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			continue
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "*Sample %d*\n```%s```\n", i+1, pretty)
	}
	return sb.String()
}

// FormatQueries renders generated queries as a numbered list.
func FormatQueries(queries []string) string {
	if len(queries) == 0 {
		return ":x: No queries were generated."
	}

	var sb strings.Builder
	for i, q := range queries {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}
	return sb.String()
}
