package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"solfege-learning-service/internal/app"
	"solfege-learning-service/internal/domain"
)

// Handler exposes the learning service over REST. Wire-level concerns stop
// here: answer selectors are passed through raw and normalized by the
// engine's single coercion point.
type Handler struct {
	service *app.LearningService
	log     *logrus.Logger
}

func NewHandler(service *app.LearningService, log *logrus.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /quizzes/{id}", h.getQuiz)
	mux.HandleFunc("POST /quizzes/{id}/submissions", h.submitQuiz)
	mux.HandleFunc("POST /modules/{id}/completions", h.completeModule)
	mux.HandleFunc("GET /learners/{id}/progress", h.getProgress)
}

// quizView is the learner-facing quiz shape: no correctness flags and no
// explanations. Those only come back with a graded submission.
type quizView struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	ModuleID     string          `json:"moduleId"`
	Questions    []questionView  `json:"questions"`
	TimeLimitSec int             `json:"timeLimitSec,omitempty"`
	PassingScore int             `json:"passingScore"`
	MaxAttempts  int             `json:"maxAttempts"`
	Level        domain.Level    `json:"level,omitempty"`
	Type         domain.QuizType `json:"type,omitempty"`
}

type questionView struct {
	ID         string            `json:"id"`
	Prompt     string            `json:"prompt"`
	Options    []string          `json:"options"`
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	Points     int               `json:"points"`
}

func presentQuiz(quiz domain.Quiz) quizView {
	view := quizView{
		ID:           quiz.ID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		ModuleID:     quiz.ModuleID,
		TimeLimitSec: quiz.TimeLimitSec,
		PassingScore: quiz.PassingThreshold(),
		MaxAttempts:  quiz.AttemptLimit(),
		Level:        quiz.Level,
		Type:         quiz.Type,
	}
	for _, q := range quiz.Questions {
		texts := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			texts = append(texts, opt.Text)
		}
		view.Questions = append(view.Questions, questionView{
			ID:         q.ID,
			Prompt:     q.Prompt,
			Options:    texts,
			Difficulty: q.Difficulty,
			Points:     q.PointValue(),
		})
	}
	return view
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, presentQuiz(quiz))
}

type submissionRequest struct {
	LearnerID string `json:"learnerId"`
	Answers   []any  `json:"answers"`
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LearnerID == "" {
		http.Error(w, "invalid submission body", http.StatusBadRequest)
		return
	}
	outcome, err := h.service.SubmitQuiz(r.Context(), req.LearnerID, r.PathValue("id"), req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

type completionRequest struct {
	LearnerID string `json:"learnerId"`
}

func (h *Handler) completeModule(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LearnerID == "" {
		http.Error(w, "invalid completion body", http.StatusBadRequest)
		return
	}
	outcome, err := h.service.CompleteModule(r.Context(), req.LearnerID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	learner, err := h.service.Progress(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, learner)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.WithError(err).Warn("write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var invariant *domain.InvariantViolationError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrLearnerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAttemptLimit):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &invariant):
		h.log.WithError(err).Error("learner state invariant violated")
		http.Error(w, "inconsistent learner state", http.StatusInternalServerError)
	default:
		h.log.WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
