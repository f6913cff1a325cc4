package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"afya/internal/cug"
	dErrors "afya/pkg/domain-errors"
)

// CUGHandler serves the closed-user-group batch endpoints used by the
// carrier-facing tooling.
type CUGHandler struct {
	processor *cug.Processor
}

func NewCUGHandler(processor *cug.Processor) *CUGHandler {
	return &CUGHandler{processor: processor}
}

func (h *CUGHandler) Register(r chi.Router) {
	r.Post("/cug/confirmations", h.handleConfirmations)
	r.Get("/cug/requests", h.handleRequests)
}

// POST /cug/confirmations applies a carrier confirmation batch.
func (h *CUGHandler) handleConfirmations(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phones []string `json:"phones"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if len(body.Phones) == 0 {
		writeError(w, dErrors.NewWithKey(dErrors.CodeInvalidInput, "phones", "batch cannot be empty"))
		return
	}
	rows := make([]cug.Row, len(body.Phones))
	for i, phone := range body.Phones {
		rows[i] = cug.Row{Phone: phone}
	}
	res, err := h.processor.Process(r.Context(), rows)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, map[string]any{
		"updated":        res.Updated,
		"already_member": res.AlreadyMember,
		"skipped":        res.Skipped,
	})
}

// GET /cug/requests builds and returns the next outbound request batch,
// stamping each first-time candidate.
func (h *CUGHandler) handleRequests(w http.ResponseWriter, r *http.Request) {
	rows, err := h.processor.ExportRequests(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []cug.RequestRow{}
	}
	writeOK(w, map[string]any{"requests": rows})
}
