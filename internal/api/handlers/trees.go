package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/straintree/straintree-backend/internal/api/httpx"
	"github.com/straintree/straintree-backend/internal/middleware"
	"github.com/straintree/straintree-backend/internal/models"
	"github.com/straintree/straintree-backend/internal/services"
)

type TreeHandler struct {
	trees *services.TreeService
}

func NewTreeHandler(trees *services.TreeService) *TreeHandler {
	return &TreeHandler{trees: trees}
}

func (h *TreeHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, err := h.trees.List(r.Context(), user, queryInt(r, "page"), queryInt(r, "per_page"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *TreeHandler) Public(w http.ResponseWriter, r *http.Request) {
	page, err := h.trees.Public(r.Context(), queryInt(r, "page"), queryInt(r, "per_page"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

type treePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

func (h *TreeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p treePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tree, err := h.trees.Create(r.Context(), user, p.Name, p.Description, p.IsPublic)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":     "Family tree created successfully",
		"family_tree": tree,
	})
}

func (h *TreeHandler) Get(w http.ResponseWriter, r *http.Request) {
	var viewer *models.User
	if user, ok := middleware.CurrentUser(r.Context()); ok {
		viewer = &user
	}
	detail, err := h.trees.Get(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, detail)
}

func (h *TreeHandler) Shared(w http.ResponseWriter, r *http.Request) {
	detail, err := h.trees.Shared(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, detail)
}

func (h *TreeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tree, err := h.trees.Update(r.Context(), user, chi.URLParam(r, "id"), updates)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":     "Family tree updated successfully",
		"family_tree": tree,
	})
}

func (h *TreeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.trees.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Family tree deleted successfully"})
}

type crossPayload struct {
	Parent1ID     string `json:"parent1_id"`
	Parent2ID     string `json:"parent2_id"`
	OffspringID   string `json:"offspring_id"`
	OffspringName string `json:"offspring_name"`
	Generation    any    `json:"generation"`
	CrossDate     string `json:"cross_date"`
	Notes         string `json:"notes"`
	PositionX     any    `json:"position_x"`
	PositionY     any    `json:"position_y"`
}

func (h *TreeHandler) CreateCross(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p crossPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	result, err := h.trees.CreateCross(r.Context(), user, chi.URLParam(r, "id"), services.CreateCrossInput{
		Parent1ID:     p.Parent1ID,
		Parent2ID:     p.Parent2ID,
		OffspringID:   p.OffspringID,
		OffspringName: p.OffspringName,
		Generation:    parseGeneration(p.Generation),
		CrossDate:     parseDate(p.CrossDate),
		Notes:         p.Notes,
		PositionX:     floatOrZero(p.PositionX),
		PositionY:     floatOrZero(p.PositionY),
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":                "Cross created successfully",
		"cross":                  result.Cross,
		"offspring":              result.Offspring,
		"offspring_auto_created": result.AutoCreated,
	})
}

type crossUpdatePayload struct {
	Generation any      `json:"generation"`
	CrossDate  *string  `json:"cross_date"`
	Notes      *string  `json:"notes"`
	PositionX  *float64 `json:"position_x"`
	PositionY  *float64 `json:"position_y"`
}

func (h *TreeHandler) UpdateCross(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p crossUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in := services.UpdateCrossInput{
		Notes:     p.Notes,
		PositionX: p.PositionX,
		PositionY: p.PositionY,
	}
	if p.Generation != nil {
		g := parseGeneration(p.Generation)
		in.Generation = &g
	}
	if p.CrossDate != nil {
		in.HasDate = true
		in.CrossDate = parseDate(*p.CrossDate)
	}
	cross, err := h.trees.UpdateCross(r.Context(), user, chi.URLParam(r, "id"), chi.URLParam(r, "crossId"), in)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Cross updated successfully",
		"cross":   cross,
	})
}

func (h *TreeHandler) DeleteCross(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.trees.DeleteCross(r.Context(), user, chi.URLParam(r, "id"), chi.URLParam(r, "crossId")); err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Cross deleted successfully"})
}

type generatePayload struct {
	Parent1Name string `json:"parent1_name"`
	Parent2Name string `json:"parent2_name"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ThcContent  any    `json:"thc_content"`
	CbdContent  any    `json:"cbd_content"`
	Generation  any    `json:"generation"`
}

func (h *TreeHandler) GenerateOffspring(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var p generatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	result, err := h.trees.GenerateOffspring(r.Context(), user, chi.URLParam(r, "id"), services.GenerateOffspringInput{
		Parent1Name: p.Parent1Name,
		Parent2Name: p.Parent2Name,
		Name:        p.Name,
		Description: p.Description,
		ThcContent:  services.SafeFloat(p.ThcContent),
		CbdContent:  services.SafeFloat(p.CbdContent),
		Generation:  parseGeneration(p.Generation),
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":   "Offspring strain created successfully",
		"strain":    result.Strain,
		"dominance": result.Dominance,
	})
}

func (h *TreeHandler) Visualization(w http.ResponseWriter, r *http.Request) {
	var viewer *models.User
	if user, ok := middleware.CurrentUser(r.Context()); ok {
		viewer = &user
	}
	viz, err := h.trees.Visualization(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, viz)
}

func (h *TreeHandler) AvailableStrains(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	base, offspring, err := h.trees.AvailableStrains(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"base_strains":      base,
		"offspring_strains": offspring,
	})
}

func (h *TreeHandler) NextGeneration(w http.ResponseWriter, r *http.Request) {
	var viewer *models.User
	if user, ok := middleware.CurrentUser(r.Context()); ok {
		viewer = &user
	}
	next, err := h.trees.NextGeneration(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"next_generation": next})
}

type parentStrainsPayload struct {
	Parent1Name string `json:"parent1_name"`
	Parent2Name string `json:"parent2_name"`
}

func (h *TreeHandler) ParentStrains(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var p parentStrainsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p1, p2, err := h.trees.ParentStrains(r.Context(), p.Parent1Name, p.Parent2Name)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"parent1": p1,
		"parent2": p2,
	})
}

// parseGeneration accepts a number or an "F3" style label.
func parseGeneration(v any) int {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || t < 0 {
			return 0
		}
		return int(t)
	case string:
		t = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(t)), "F"))
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func floatOrZero(v any) float64 {
	if f := services.SafeFloat(v); f != nil {
		return *f
	}
	return 0
}
