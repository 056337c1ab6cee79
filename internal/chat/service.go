package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
)

const (
	SourceAssistant = "assistant"
	SourceFallback  = "fallback"

	maxMessageLen   = 2000
	maxSessionIDLen = 64
)

var ErrValidation = errors.New("validation")

type ProductSource interface {
	ListAll(ctx context.Context) ([]models.Product, error)
}

type Reply struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
}

type Service struct {
	Store     *SessionStore
	Completer Completer
	Products  ProductSource
	Timeout   time.Duration
}

// Reply answers message within the given session. Completion failures fall
// back to the keyword table and are never returned.
func (s *Service) Reply(ctx context.Context, sessionID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, fmt.Errorf("message required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return Reply{}, fmt.Errorf("message longer than %d characters: %w", maxMessageLen, ErrValidation)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if !validSessionID(sessionID) {
		return Reply{}, fmt.Errorf("session id must be at most %d letters, digits, '-' or '_': %w", maxSessionIDLen, ErrValidation)
	}

	l := logging.FromContext(ctx).With("session_id", sessionID)
	userMsg := Message{Role: RoleUser, Content: message}

	text, source := s.complete(ctx, userMsg, sessionID)
	if source == SourceFallback {
		l.Info("chat_fallback_used")
	}

	s.Store.Append(sessionID, userMsg, Message{Role: RoleAssistant, Content: text})
	return Reply{Message: text, SessionID: sessionID, Source: source}, nil
}

func validSessionID(id string) bool {
	if len(id) > maxSessionIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func (s *Service) complete(ctx context.Context, userMsg Message, sessionID string) (string, string) {
	if s.Completer == nil {
		return Fallback(userMsg.Content), SourceFallback
	}
	l := logging.FromContext(ctx)

	var products []models.Product
	if s.Products != nil {
		var err error
		products, err = s.Products.ListAll(ctx)
		if err != nil {
			l.Warn("chat_catalog_unavailable", "error", err)
		}
	}
	prompt := BuildSystemPrompt(l, products)
	history := append(s.Store.History(sessionID), userMsg)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	text, err := s.Completer.Complete(ctx, prompt, history)
	if err != nil {
		l.Warn("chat_completion_failed", "quota", errors.Is(err, ErrQuota), "error", err)
		return Fallback(userMsg.Content), SourceFallback
	}
	return text, SourceAssistant
}
