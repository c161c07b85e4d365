package questions

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/groundschool/backend/internal/documents"
	"github.com/groundschool/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers study endpoints on the protected subrouter.
func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/questions", h.GetStudyQuestions).Methods("GET")
	protected.HandleFunc("/questions/{id}", h.GetQuestion).Methods("GET")
	protected.HandleFunc("/questions/{id}/answer", h.RecordAnswer).Methods("POST")
	protected.HandleFunc("/questions/{id}/next-review", h.NextReview).Methods("GET")
	protected.HandleFunc("/study/stats", h.GetStudyStats).Methods("GET")
	protected.HandleFunc("/documents/{id}/generate", h.GenerateQuestions).Methods("POST")
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) GetStudyQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	query := r.URL.Query()
	filters := models.StudyFilters{
		Limit:   intQueryParam(query, "limit", 0),
		DueOnly: query.Get("due_only") == "true",
	}
	if c := query.Get("category"); c != "" {
		filters.Category = &c
	}
	if d := query.Get("difficulty"); d != "" {
		diff := models.Difficulty(d)
		if !models.ValidDifficulties[diff] {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "difficulty must be 'easy', 'medium', or 'hard'"})
			return
		}
		filters.Difficulty = &diff
	}

	questions, err := h.service.GetStudyQuestions(r.Context(), userID, filters)
	if err != nil {
		writeError(w, "GetStudyQuestions", err, "Failed to get study questions")
		return
	}

	if questions == nil {
		questions = []models.Question{}
	}
	writeJSON(w, http.StatusOK, models.QuestionListResponse{
		Questions: questions,
		Total:     len(questions),
	})
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	question, err := h.service.GetQuestion(r.Context(), id)
	if err != nil {
		writeError(w, "GetQuestion", err, "Failed to get question")
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.RecordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.RecordAnswer(r.Context(), id, req.Correct, req.EventID)
	if err != nil {
		// A failed write means the answer did not count; the client must
		// not advance the user past this question.
		writeError(w, "RecordAnswer", err, "Answer was not recorded")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) NextReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.NextReview(r.Context(), id)
	if err != nil {
		writeError(w, "NextReview", err, "Failed to compute next review")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetStudyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	stats, err := h.service.GetStudyStats(r.Context(), userID)
	if err != nil {
		writeError(w, "GetStudyStats", err, "Failed to get study stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.GenerateQuestions(r.Context(), userID, id, req.Count)
	if err != nil {
		writeError(w, "GenerateQuestions", err, "Generation failed")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ── Helpers ─────────────────────────────────────────────

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid ID"})
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, op string, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Question not found"})
	case errors.Is(err, documents.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Document not found"})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		log.Printf("[handler] %s error: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: fallback})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
