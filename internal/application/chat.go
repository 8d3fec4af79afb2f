package application

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dorylabs/dorycli/internal/domain/model"
	"github.com/dorylabs/dorycli/internal/domain/port/driven"
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message cannot be empty")

// ChatSession threads chat messages through one backend conversation. The
// first reply's chat id is adopted for every later message until Reset.
type ChatSession struct {
	gateway driven.Gateway

	mu     sync.Mutex
	chatID string
}

// NewChatSession creates a session with no conversation yet.
func NewChatSession(gateway driven.Gateway) *ChatSession {
	return &ChatSession{gateway: gateway}
}

// Send posts a message and returns the reply. useRAG asks the backend to
// ground the reply in previously ingested documents.
func (c *ChatSession) Send(ctx context.Context, message string, useRAG bool) (model.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return model.ChatReply{}, ErrEmptyMessage
	}

	c.mu.Lock()
	chatID := c.chatID
	c.mu.Unlock()

	reply, err := c.gateway.SendMessage(ctx, message, chatID, useRAG)
	if err != nil {
		return model.ChatReply{}, err
	}

	if reply.ChatID != "" {
		c.mu.Lock()
		c.chatID = reply.ChatID
		c.mu.Unlock()
	}

	return reply, nil
}

// ChatID returns the current conversation id, empty before the first reply.
func (c *ChatSession) ChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatID
}

// Reset starts a new stateless conversation.
func (c *ChatSession) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatID = ""
}
