// Package notify forwards command bus events to external channels. The only
// implementation today is Slack; the bus treats any notifier as best-effort.
package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"
	"golang.org/x/text/language"

	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/domain"
	"github.com/relayerp/relay/internal/i18n"
)

// SlackAPI abstracts the subset of the Slack client used by SlackNotifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackNotifier posts one line per executed, undone or redone action to a
// fixed Slack channel.
type SlackNotifier struct {
	api     SlackAPI
	channel string
	lang    language.Tag
}

// Compile-time interface check.
var _ command.Notifier = (*SlackNotifier)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlackNotifier creates a SlackNotifier. lang selects the language of the
// posted activity lines; zero value falls back to the default language.
func NewSlackNotifier(api SlackAPI, channel string, lang language.Tag) *SlackNotifier {
	if lang == (language.Tag{}) {
		lang = i18n.DefaultTag()
	}
	return &SlackNotifier{api: api, channel: channel, lang: lang}
}

// NotifyAction posts a localized activity line for a bus event, e.g.
// "undid Created todo Buy milk".
func (n *SlackNotifier) NotifyAction(ctx context.Context, event string, entry *domain.ActionLog) error {
	if entry == nil {
		return nil
	}

	p := i18n.Printer(n.lang)
	line := i18n.EventLabel(p, event, entry.ActionLabel)

	_, _, err := n.api.PostMessageContext(ctx, n.channel, slacklib.MsgOptionText(line, false))
	if err != nil {
		return fmt.Errorf("notify.SlackNotifier.NotifyAction: %w", err)
	}

	return nil
}
