package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"classquiz-engine/internal/domain"
	"classquiz-engine/internal/engine"
)

// Handler exposes the engine contract as plain JSON endpoints. It carries no
// business logic: every route maps 1:1 onto an engine operation and
// translates error kinds into status codes.
type Handler struct {
	engine *engine.Engine
}

func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("GET /sessions/{id}", h.getSession)
	mux.HandleFunc("POST /sessions/{id}/questions", h.attachQuestions)
	mux.HandleFunc("GET /sessions/{id}/questions", h.listQuestions)
	mux.HandleFunc("POST /sessions/{id}/quiz-config", h.configureQuiz)
	mux.HandleFunc("POST /sessions/{id}/start", h.startQuiz)
	mux.HandleFunc("POST /sessions/{id}/end", h.endSession)
	mux.HandleFunc("POST /sessions/{id}/simulate", h.controlSimulation)
	mux.HandleFunc("GET /sessions/{id}/simulate", h.simulationStatus)
	mux.HandleFunc("GET /sessions/{id}/stats", h.sessionStats)
	mux.HandleFunc("POST /join", h.join)
	mux.HandleFunc("POST /responses", h.submitResponse)
	mux.HandleFunc("GET /leaderboard", h.leaderboard)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeacherID int64  `json:"teacherId"`
		Title     string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	session, err := h.engine.CreateSession(r.Context(), req.TeacherID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	session, err := h.engine.Session(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) attachQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Questions []domain.QuestionDraft `json:"questions"`
	}
	if !decode(w, r, &req) {
		return
	}
	questions, err := h.engine.AttachQuestions(r.Context(), id, req.Questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"questions": questions})
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	questions, err := h.engine.Questions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (h *Handler) configureQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		CourseText       string `json:"courseText"`
		TimeLimitSeconds int    `json:"timeLimitSeconds"`
	}
	if !decode(w, r, &req) {
		return
	}
	session, err := h.engine.ConfigureQuiz(r.Context(), id, req.CourseText, req.TimeLimitSeconds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	session, err := h.engine.StartQuiz(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	session, err := h.engine.EndSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) controlSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if !decode(w, r, &req) {
		return
	}
	switch req.Action {
	case "start":
		started, err := h.engine.StartSimulation(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"started": started})
	case "stop":
		stopped := h.engine.StopSimulation(id)
		writeJSON(w, http.StatusOK, map[string]any{"stopped": stopped})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "action must be start or stop"})
	}
}

func (h *Handler) simulationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"isRunning": h.engine.IsSimulationRunning(id)})
}

func (h *Handler) sessionStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stats, err := h.engine.SessionStats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code      string   `json:"code"`
		Name      string   `json:"name"`
		Interests []string `json:"interests"`
	}
	if !decode(w, r, &req) {
		return
	}
	student, err := h.engine.JoinSession(r.Context(), req.Code, req.Name, req.Interests)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *Handler) submitResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID        int64 `json:"studentId"`
		QuestionID       int64 `json:"questionId"`
		SelectedOption   int   `json:"selectedOption"`
		TimeTakenSeconds int   `json:"timeTakenSeconds"`
	}
	if !decode(w, r, &req) {
		return
	}
	result, err := h.engine.SubmitResponse(r.Context(), req.StudentID, req.QuestionID, req.SelectedOption, req.TimeTakenSeconds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(r.URL.Query().Get("sessionId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sessionId query parameter is required"})
		return
	}
	lb, err := h.engine.Leaderboard(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
