package slackbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"

	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
)

// Directory is the subset of the Slack Web API used to find reminder
// recipients.
type Directory interface {
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Reminder sends a daily DM to every active workspace member.
type Reminder struct {
	dir      Directory
	logger   llmhttp.Logger
	schedule string
	chatURL  string
	cron     *cron.Cron
}

// NewReminder constructs a Reminder with a cron schedule in the standard
// five-field format, e.g. "0 9 * * *" for 09:00 daily. chatURL, when set,
// is linked in the message so recipients know where to paste scenarios.
func NewReminder(dir Directory, logger llmhttp.Logger, schedule, chatURL string) *Reminder {
	return &Reminder{
		dir:      dir,
		logger:   logger,
		schedule: schedule,
		chatURL:  chatURL,
	}
}

// Start registers the cron job and begins the schedule. It returns an
// error if the schedule expression is invalid.
func (r *Reminder) Start(ctx context.Context) error {
	r.cron = cron.New()
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.SendAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule. Running jobs complete before it returns.
func (r *Reminder) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

// SendAll DMs the reminder to every active human user. Failures for
// individual users are logged and skipped.
func (r *Reminder) SendAll(ctx context.Context) {
	users, err := r.dir.GetUsersContext(ctx)
	if err != nil {
		if r.logger != nil {
			r.logger.LogWarning(ctx, "reminder user listing failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}

	for _, user := range users {
		if !ShouldRemind(user) {
			continue
		}
		if err := r.sendOne(ctx, user.ID); err != nil && r.logger != nil {
			r.logger.LogWarning(ctx, "reminder delivery failed", map[string]interface{}{
				"user":  user.ID,
				"error": err.Error(),
			})
		}
	}
}

func (r *Reminder) sendOne(ctx context.Context, userID string) error {
	channel, _, _, err := r.dir.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return fmt.Errorf("open conversation: %w", err)
	}

	_, _, err = r.dir.PostMessageContext(ctx, channel.ID, slack.MsgOptionText(r.messageText(time.Now()), false))
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

func (r *Reminder) messageText(now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, ":sunny: *Good Morning!* | %s\n\n", now.Format("Monday, January 2, 2006"))
	sb.WriteString("*Daily Reminder*: Help curate our command dataset today with the `/query` command.\n\n")
	sb.WriteString("*Try these options*:\n")
	sb.WriteString("• Basic scenario: `/query`\n")
	sb.WriteString("• Multiple scenarios: `/query -c 3`\n\n")
	if r.chatURL != "" {
		fmt.Fprintf(&sb, "_Generate scenarios and paste them into <%s|the team chat> to help grow the dataset!_\n", r.chatURL)
	}
	return sb.String()
}

// ShouldRemind reports whether a workspace member gets the daily DM.
// Bots, deleted accounts, and Slackbot itself are excluded.
func ShouldRemind(user slack.User) bool {
	if user.IsBot || user.Deleted {
		return false
	}
	return user.ID != "USLACKBOT"
}
