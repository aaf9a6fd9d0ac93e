package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/straintree/straintree-backend/internal/api/httpx"
	"github.com/straintree/straintree-backend/internal/models"
	"github.com/straintree/straintree-backend/internal/services"
)

type StrainHandler struct {
	strains *services.StrainService
}

func NewStrainHandler(strains *services.StrainService) *StrainHandler {
	return &StrainHandler{strains: strains}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func queryBool(r *http.Request, key string) bool {
	v := r.URL.Query().Get(key)
	return v == "true" || v == "1"
}

func (h *StrainHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.strains.List(r.Context(), models.StrainFilter{
		Search:        q.Get("search"),
		Type:          q.Get("type"),
		VerifiedOnly:  queryBool(r, "verified_only"),
		LabTestedOnly: queryBool(r, "lab_tested_only"),
		Page:          queryInt(r, "page"),
		PerPage:       queryInt(r, "per_page"),
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *StrainHandler) Verified(w http.ResponseWriter, r *http.Request) {
	page, err := h.strains.Verified(r.Context(), queryInt(r, "page"), queryInt(r, "per_page"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *StrainHandler) Search(w http.ResponseWriter, r *http.Request) {
	strains, err := h.strains.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"strains": strains})
}

type strainPayload struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	StrainType    string `json:"strain_type"`
	ThcContent    any    `json:"thc_content"`
	CbdContent    any    `json:"cbd_content"`
	FloweringTime string `json:"flowering_time"`
	YieldInfo     string `json:"yield_info"`
}

func (h *StrainHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p strainPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	strain, err := h.strains.Create(r.Context(), user, services.CreateStrainInput{
		Name:          p.Name,
		Description:   p.Description,
		StrainType:    p.StrainType,
		ThcContent:    services.SafeFloat(p.ThcContent),
		CbdContent:    services.SafeFloat(p.CbdContent),
		FloweringTime: p.FloweringTime,
		YieldInfo:     p.YieldInfo,
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Strain created successfully",
		"strain":  strain,
	})
}

func (h *StrainHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.strains.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"strain": detail})
}

func (h *StrainHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	strain, err := h.strains.Update(r.Context(), user, chi.URLParam(r, "id"), updates)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Strain updated successfully",
		"strain":  strain,
	})
}

type verificationPayload struct {
	LabName              string `json:"lab_name"`
	LabTestDate          string `json:"lab_test_date"`
	LabReportURL         string `json:"lab_report_url"`
	LabCertificateNumber string `json:"lab_certificate_number"`
	VerifiedThc          any    `json:"verified_thc"`
	VerifiedCbd          any    `json:"verified_cbd"`
	VerifiedTerpenes     string `json:"verified_terpenes"`
	VerificationNotes    string `json:"verification_notes"`
}

func (h *StrainHandler) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p verificationPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	strain, err := h.strains.SubmitVerification(r.Context(), user, chi.URLParam(r, "id"), services.VerificationInput{
		LabName:              p.LabName,
		LabTestDate:          parseDate(p.LabTestDate),
		LabReportURL:         p.LabReportURL,
		LabCertificateNumber: p.LabCertificateNumber,
		VerifiedThc:          services.SafeFloat(p.VerifiedThc),
		VerifiedCbd:          services.SafeFloat(p.VerifiedCbd),
		VerifiedTerpenes:     p.VerifiedTerpenes,
		VerificationNotes:    p.VerificationNotes,
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Verification submitted successfully",
		"strain":  strain,
	})
}

type verifyPayload struct {
	Type             string `json:"type"`
	VerificationType string `json:"verification_type"`
	Notes            string `json:"notes"`
}

func (h *StrainHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p verifyPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// "type" is the canonical key; "verification_type" is kept for older clients.
	verificationType := p.Type
	if verificationType == "" {
		verificationType = p.VerificationType
	}
	strain, verificationType, err := h.strains.Verify(r.Context(), user, chi.URLParam(r, "id"), verificationType, p.Notes)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":           fmt.Sprintf("Strain %s verification approved", verificationType),
		"verification_type": verificationType,
		"strain":            strain,
	})
}

// parseDate accepts a bare date, returning nil for anything else.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
