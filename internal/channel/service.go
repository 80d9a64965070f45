package channel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/storechat/server/internal/agent/model"
	errx "github.com/storechat/server/internal/core/error"
	logx "github.com/storechat/server/pkg/logger"
)

const (
	// DefaultMaxMessageLength bounds inbound text before it enters the graph.
	DefaultMaxMessageLength = 1000

	// ClearCommand resets the thread when received as the entire message body.
	ClearCommand = "/clear"

	// Fixed user-facing replies. These are part of the external contract and
	// must not change between channels.
	TooLongReply      = "Your message is too long. Please try again with a shorter message."
	ClearConfirmation = "Conversation history cleared. You can start a new conversation now."
	FailureReply      = "Sorry, something went wrong while handling your message. Please try again."
)

// Agent runs one conversation turn. Satisfied by graph.Runner.
type Agent interface {
	Invoke(ctx context.Context, in model.TurnInput) (string, error)
}

// Service is the channel-independent inbound message handler. Every adapter
// (webhook, websocket) funnels through HandleMessage so the length guard,
// clear command, and thread derivation behave identically everywhere.
type Service struct {
	agent       Agent
	checkpoints model.CheckpointStore
	maxLength   int
}

func NewService(agent Agent, checkpoints model.CheckpointStore, maxLength int) *Service {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return &Service{agent: agent, checkpoints: checkpoints, maxLength: maxLength}
}

// MaxLength reports the configured per-message character limit.
func (s *Service) MaxLength() int { return s.maxLength }

// HandleMessage processes one inbound message and returns the reply text.
// Validation failures (message too long, missing clear-command tables) are
// returned as user-facing replies with a nil error; only genuine turn
// failures propagate as errors.
func (s *Service) HandleMessage(ctx context.Context, channelName, rawSender, text string) (string, error) {
	threadID := DeriveThreadID(channelName, rawSender)

	if len([]rune(text)) > s.maxLength {
		logx.Warn().
			Str("thread_id", threadID).
			Int("length", len([]rune(text))).
			Int("max_length", s.maxLength).
			Msg("Inbound message rejected: too long")
		return TooLongReply, nil
	}

	if strings.TrimSpace(text) == ClearCommand {
		return s.clearThread(ctx, threadID)
	}

	reply, err := s.agent.Invoke(ctx, model.TurnInput{ThreadID: threadID, Query: text})
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("Turn failed")
		return "", err
	}
	return reply, nil
}

// clearThread deletes all persisted state for the thread without touching the
// graph. Absent persistence tables become a diagnostic reply rather than an
// error so a half-provisioned deployment stays debuggable from the chat side.
func (s *Service) clearThread(ctx context.Context, threadID string) (string, error) {
	err := s.checkpoints.Clear(ctx, threadID)
	if err == nil {
		logx.Info().Str("thread_id", threadID).Msg("Conversation history cleared")
		return ClearConfirmation, nil
	}

	var missing *errx.MissingTablesError
	if errors.As(err, &missing) {
		return fmt.Sprintf(
			"Cannot clear history: required tables are missing (%s). Run the seed command to create them.",
			strings.Join(missing.Tables, ", "),
		), nil
	}

	logx.Error().Err(err).Str("thread_id", threadID).Msg("Failed to clear conversation history")
	return "", err
}
