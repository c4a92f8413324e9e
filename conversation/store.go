package conversation

import (
	"log/slog"
	"sync"
	"time"
)

// Message is one turn of a conversation, role "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const maxMessagesPerConversation = 20 // last 10 exchanges

type entry struct {
	messages  []Message
	updatedAt time.Time
}

// Store keeps per-conversation history in memory. Conversations idle longer
// than the TTL are evicted by the cleanup goroutine. History is advisory
// context for prompt assembly, not durable state.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*entry
	ttl           time.Duration
	logger        *slog.Logger

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		conversations: make(map[string]*entry),
		ttl:           ttl,
		logger:        logger,
	}
}

// Append records one question/answer exchange, trimming history to the most
// recent exchanges.
func (s *Store) Append(conversationID, question, answer string) {
	if conversationID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.conversations[conversationID]
	if !ok {
		e = &entry{}
		s.conversations[conversationID] = e
	}

	e.messages = append(e.messages,
		Message{Role: "user", Content: question},
		Message{Role: "assistant", Content: answer})
	if len(e.messages) > maxMessagesPerConversation {
		e.messages = e.messages[len(e.messages)-maxMessagesPerConversation:]
	}
	e.updatedAt = timeProvider.Now()
}

// History returns a copy of the conversation's messages, oldest first.
func (s *Store) History(conversationID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	messages := make([]Message, len(e.messages))
	copy(messages, e.messages)
	return messages
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// StartCleanup starts a goroutine that periodically evicts conversations
// idle longer than the store's TTL.
func (s *Store) StartCleanup(cleanupInterval time.Duration) {
	s.stopCleanup = make(chan struct{})
	s.cleanupTicker = time.NewTicker(cleanupInterval)

	go func() {
		for {
			select {
			case <-s.cleanupTicker.C:
				s.performCleanup()
			case <-s.stopCleanup:
				s.cleanupTicker.Stop()
				return
			}
		}
	}()
}

func (s *Store) StopCleanup() {
	if s.stopCleanup != nil {
		close(s.stopCleanup)
	}
}

func (s *Store) performCleanup() {
	now := timeProvider.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.conversations {
		if now.Sub(e.updatedAt) > s.ttl {
			delete(s.conversations, id)
			if s.logger != nil {
				s.logger.Debug("Evicted expired conversation",
					slog.String("conversation_id", id))
			}
		}
	}
}
