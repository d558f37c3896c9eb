package handler

import (
	"encoding/json"
	"net/http"

	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/service"
)

// maxContactBody caps the JSON body of a contact submission.
const maxContactBody = 64 << 10

// ContactHandler handles public contact form submissions.
type ContactHandler struct {
	messageService service.MessageService
}

// NewContactHandler creates a ContactHandler with the given service.
func NewContactHandler(messageService service.MessageService) *ContactHandler {
	return &ContactHandler{messageService: messageService}
}

type submitResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// Submit handles POST /contact.
// name, email and message are required; subject defaults to "No Subject".
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody)).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.messageService.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to send message")
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Success:   true,
		Message:   "Message sent successfully",
		MessageID: id,
	})
}
