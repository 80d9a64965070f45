package channel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storechat/server/internal/agent/model"
	errx "github.com/storechat/server/internal/core/error"
)

type spyAgent struct {
	inputs []model.TurnInput
	reply  string
	err    error
}

func (a *spyAgent) Invoke(ctx context.Context, in model.TurnInput) (string, error) {
	a.inputs = append(a.inputs, in)
	return a.reply, a.err
}

type fakeCheckpoints struct {
	cleared  []string
	clearErr error
}

func (f *fakeCheckpoints) Load(ctx context.Context, threadID string) (*model.ConversationState, error) {
	return model.NewConversationState(threadID), nil
}

func (f *fakeCheckpoints) Save(ctx context.Context, state *model.ConversationState) error {
	return nil
}

func (f *fakeCheckpoints) Clear(ctx context.Context, threadID string) error {
	f.cleared = append(f.cleared, threadID)
	return f.clearErr
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("routes message through the agent", func(t *testing.T) {
		agent := &spyAgent{reply: "Here you go."}
		svc := NewService(agent, &fakeCheckpoints{}, 0)

		reply, err := svc.HandleMessage(ctx, ChannelWhatsApp, "+1 (555) 000-1111", "show me laptops")
		require.NoError(t, err)
		assert.Equal(t, "Here you go.", reply)

		require.Len(t, agent.inputs, 1)
		assert.Equal(t, "whatsapp:+15550001111", agent.inputs[0].ThreadID)
		assert.Equal(t, "show me laptops", agent.inputs[0].Query)
	})

	t.Run("rejects over-length message before the graph", func(t *testing.T) {
		agent := &spyAgent{reply: "should never be used"}
		svc := NewService(agent, &fakeCheckpoints{}, 1000)

		reply, err := svc.HandleMessage(ctx, ChannelWebsocket, "client-1", strings.Repeat("a", 1001))
		require.NoError(t, err)
		assert.Equal(t, TooLongReply, reply)
		assert.Empty(t, agent.inputs, "graph must not be invoked for rejected messages")
	})

	t.Run("accepts message exactly at the limit", func(t *testing.T) {
		agent := &spyAgent{reply: "ok"}
		svc := NewService(agent, &fakeCheckpoints{}, 1000)

		_, err := svc.HandleMessage(ctx, ChannelWebsocket, "client-1", strings.Repeat("a", 1000))
		require.NoError(t, err)
		assert.Len(t, agent.inputs, 1)
	})

	t.Run("length limit counts characters not bytes", func(t *testing.T) {
		agent := &spyAgent{reply: "ok"}
		svc := NewService(agent, &fakeCheckpoints{}, 10)

		// 10 multi-byte runes fit; 11 do not.
		_, err := svc.HandleMessage(ctx, ChannelWebsocket, "client-1", strings.Repeat("é", 10))
		require.NoError(t, err)
		assert.Len(t, agent.inputs, 1)

		reply, err := svc.HandleMessage(ctx, ChannelWebsocket, "client-1", strings.Repeat("é", 11))
		require.NoError(t, err)
		assert.Equal(t, TooLongReply, reply)
		assert.Len(t, agent.inputs, 1)
	})

	t.Run("clear command deletes thread state and skips the graph", func(t *testing.T) {
		agent := &spyAgent{}
		store := &fakeCheckpoints{}
		svc := NewService(agent, store, 1000)

		reply, err := svc.HandleMessage(ctx, ChannelTelegram, "tg:4821", "  /clear  ")
		require.NoError(t, err)
		assert.Equal(t, ClearConfirmation, reply)
		assert.Equal(t, []string{"tg:4821"}, store.cleared)
		assert.Empty(t, agent.inputs)
	})

	t.Run("clear with missing tables yields diagnostic naming them", func(t *testing.T) {
		store := &fakeCheckpoints{
			clearErr: errx.New(
				&errx.MissingTablesError{Tables: []string{"checkpoints"}},
				424, errx.PostgresErrorMessage,
			),
		}
		svc := NewService(&spyAgent{}, store, 1000)

		reply, err := svc.HandleMessage(ctx, ChannelTelegram, "tg:4821", "/clear")
		require.NoError(t, err)
		assert.Contains(t, reply, "checkpoints")
	})

	t.Run("clear failure propagates", func(t *testing.T) {
		store := &fakeCheckpoints{clearErr: errors.New("redis down")}
		svc := NewService(&spyAgent{}, store, 1000)

		_, err := svc.HandleMessage(ctx, ChannelTelegram, "tg:4821", "/clear")
		assert.Error(t, err)
	})

	t.Run("message containing clear mid-text is not a command", func(t *testing.T) {
		agent := &spyAgent{reply: "sure"}
		store := &fakeCheckpoints{}
		svc := NewService(agent, store, 1000)

		_, err := svc.HandleMessage(ctx, ChannelTelegram, "tg:4821", "please /clear my doubts")
		require.NoError(t, err)
		assert.Empty(t, store.cleared)
		assert.Len(t, agent.inputs, 1)
	})

	t.Run("turn failure propagates", func(t *testing.T) {
		agent := &spyAgent{err: errors.New("model unavailable")}
		svc := NewService(agent, &fakeCheckpoints{}, 1000)

		_, err := svc.HandleMessage(ctx, ChannelWhatsApp, "15550001111", "hello")
		assert.Error(t, err)
	})
}
