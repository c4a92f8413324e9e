package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lcabral/docqa/conversation"
)

// ConversationSource exposes per-conversation history; *conversation.Store
// satisfies it.
type ConversationSource interface {
	History(conversationID string) []conversation.Message
}

type ConversationHandler struct {
	store  ConversationSource
	logger *slog.Logger
}

func NewConversationHandler(store ConversationSource, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		store:  store,
		logger: logger,
	}
}

// History returns the recorded exchanges for one conversation, oldest first.
// Unknown or expired conversations are a not-found condition.
func (h *ConversationHandler) History(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]

	messages := h.store.History(conversationID)
	if messages == nil {
		writeJSONError(w, "Conversation not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conversationID,
		"messages":        messages,
		"count":           len(messages),
	})
}
