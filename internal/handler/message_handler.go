package handler

import (
	"net/http"

	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/service"
)

// MessageHandler handles the admin inbox endpoints.
type MessageHandler struct {
	messageService service.MessageService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type listMessagesResponse struct {
	Success  bool             `json:"success"`
	Messages []*model.Message `json:"messages"`
	Unread   int              `json:"unread"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// List handles GET /messages (bearer auth required).
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messageService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch messages")
		return
	}

	unread := 0
	for _, m := range msgs {
		if !m.Read {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, listMessagesResponse{Success: true, Messages: msgs, Unread: unread})
}

// MarkRead handles POST /messages/{id}/read.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.messageService.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Failed to update message")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Message marked as read"})
}

// Delete handles DELETE /messages/{id}.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.messageService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Failed to delete message")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Message deleted"})
}
