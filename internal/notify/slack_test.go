package notify_test

import (
	"context"
	"errors"
	"testing"

	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/relayerp/relay/internal/domain"
	"github.com/relayerp/relay/internal/notify"
)

type mockSlackAPI struct {
	posts    []postedMessage
	postErr  error
	lastOpts int
}

type postedMessage struct {
	channel string
}

func (m *mockSlackAPI) PostMessageContext(_ context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error) {
	if m.postErr != nil {
		return "", "", m.postErr
	}
	m.posts = append(m.posts, postedMessage{channel: channelID})
	m.lastOpts = len(options)
	return channelID, "1724380000.000100", nil
}

func TestNotifyAction(t *testing.T) {
	t.Parallel()

	entry := &domain.ActionLog{
		CommandID:   "example.todos.create",
		ActionLabel: "Created todo Buy milk",
	}

	t.Run("posts one line to the configured channel", func(t *testing.T) {
		t.Parallel()

		api := &mockSlackAPI{}
		n := notify.NewSlackNotifier(api, "C-AUDIT", language.AmericanEnglish)

		err := n.NotifyAction(t.Context(), "command.executed", entry)

		require.NoError(t, err)
		require.Len(t, api.posts, 1)
		assert.Equal(t, "C-AUDIT", api.posts[0].channel)
		assert.Equal(t, 1, api.lastOpts)
	})

	t.Run("nil entry is a no-op", func(t *testing.T) {
		t.Parallel()

		api := &mockSlackAPI{}
		n := notify.NewSlackNotifier(api, "C-AUDIT", language.AmericanEnglish)

		err := n.NotifyAction(t.Context(), "command.executed", nil)

		require.NoError(t, err)
		assert.Empty(t, api.posts)
	})

	t.Run("post error propagates", func(t *testing.T) {
		t.Parallel()

		api := &mockSlackAPI{postErr: errors.New("slack down")}
		n := notify.NewSlackNotifier(api, "C-AUDIT", language.Korean)

		err := n.NotifyAction(t.Context(), "command.undone", entry)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "NotifyAction")
	})
}
