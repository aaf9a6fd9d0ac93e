package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/straintree/straintree-backend/internal/api/httpx"
	"github.com/straintree/straintree-backend/internal/services"
)

type ExportHandler struct {
	exports *services.ExportService
}

func NewExportHandler(exports *services.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

func (h *ExportHandler) Plans(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"plans": h.exports.Plans()})
}

type paymentPayload struct {
	FamilyTreeID string `json:"family_tree_id"`
	PlanType     string `json:"plan_type"`
}

func (h *ExportHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	intent, err := h.exports.CreatePaymentIntent(r.Context(), user, p.FamilyTreeID, p.PlanType)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, intent)
}

func (h *ExportHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	result, err := h.exports.ConfirmPayment(r.Context(), user, p.FamilyTreeID, p.PlanType)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Payment confirmed, PDF generated",
		"download_url": result.DownloadURL,
		"expires_in":   result.ExpiresIn,
		"plan_type":    result.PlanType,
	})
}

// Download streams the generated PDF. The token in the path authenticates
// the request, so no session is required.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	download, err := h.exports.Download(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+download.Filename+`"`)
	http.ServeFile(w, r, download.Path)
}
