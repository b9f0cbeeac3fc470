package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"academydb/internal/core"
	"academydb/internal/service"
)

type Handler struct {
	instances *service.InstanceService
	queries   *service.QueryService
	auth      *AuthMiddleware
}

func NewHandler(instances *service.InstanceService, queries *service.QueryService, auth *AuthMiddleware) *Handler {
	return &Handler{
		instances: instances,
		queries:   queries,
		auth:      auth,
	}
}

// Routes wires every authenticated endpoint. Instance management and the
// all-queries listing require an elevated role.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.auth.Handler)

	r.Route("/instances", func(r chi.Router) {
		r.Get("/assigned", h.ListAssignedInstances)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireElevated)
			r.Get("/", h.ListInstances)
			r.Post("/", h.CreateInstance)
			r.Delete("/{id}", h.DeleteInstance)
			r.Post("/assign", h.AssignInstance)
			r.Delete("/assign", h.UnassignInstance)
		})
	})

	r.Route("/queries", func(r chi.Router) {
		r.Post("/execute", h.ExecuteQuery)
		r.Post("/", h.SaveQuery)
		r.Get("/student", h.ListOwnQueries)
		r.Get("/history", h.QueryHistory)
		r.With(h.auth.RequireElevated).Get("/", h.ListAllQueries)
		r.Get("/{id}", h.GetQuery)
		r.Delete("/{id}", h.DeleteQuery)
	})

	return r
}

// --- Instances ---

func (h *Handler) ListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.instances.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyNotNullInstances(instances))
}

func (h *Handler) ListAssignedInstances(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	instances, err := h.instances.ListAssigned(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyNotNullInstances(instances))
}

func (h *Handler) CreateInstance(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInstanceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := UserFromContext(r.Context())
	inst, err := h.instances.Create(user.ID, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (h *Handler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	if err := h.instances.Delete(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	StudentID  string `json:"studentId"`
	InstanceID string `json:"instanceId"`
}

func (h *Handler) AssignInstance(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StudentID == "" || req.InstanceID == "" {
		writeError(w, http.StatusBadRequest, "studentId and instanceId are required")
		return
	}

	if err := h.instances.Assign(req.StudentID, req.InstanceID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UnassignInstance(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.instances.Unassign(req.StudentID, req.InstanceID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Queries ---

type executeRequest struct {
	InstanceID string `json:"instanceId"`
	Query      string `json:"query"`
}

func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InstanceID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "instanceId and query are required")
		return
	}

	user := UserFromContext(r.Context())
	result, record, err := h.queries.Execute(r.Context(), user, req.InstanceID, req.Query)
	if err != nil {
		if record != nil {
			// Execution failed but was recorded: surface the SQL error
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"id":     record.ID,
				"status": record.Status,
				"error":  record.Error,
			})
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type saveQueryRequest struct {
	InstanceID string `json:"instanceId"`
	SQLQuery   string `json:"sqlQuery"`
}

func (h *Handler) SaveQuery(w http.ResponseWriter, r *http.Request) {
	var req saveQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InstanceID == "" || req.SQLQuery == "" {
		writeError(w, http.StatusBadRequest, "instanceId and sqlQuery are required")
		return
	}

	user := UserFromContext(r.Context())
	record, err := h.queries.Save(user, req.InstanceID, req.SQLQuery)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) GetQuery(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	record, err := h.queries.Get(user, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) ListAllQueries(w http.ResponseWriter, r *http.Request) {
	records, err := h.queries.ListAll()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyNotNullRecords(records))
}

func (h *Handler) ListOwnQueries(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	records, err := h.queries.ListOwn(user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyNotNullRecords(records))
}

func (h *Handler) QueryHistory(w http.ResponseWriter, r *http.Request) {
	filter := core.HistoryFilter{
		InstanceID: r.URL.Query().Get("instanceId"),
		Status:     r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	user := UserFromContext(r.Context())
	records, err := h.queries.History(user, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyNotNullRecords(records))
}

func (h *Handler) DeleteQuery(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.queries.Delete(user, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JSON lists come back as [] rather than null
func emptyNotNullInstances(in []core.DatabaseInstance) []core.DatabaseInstance {
	if in == nil {
		return []core.DatabaseInstance{}
	}
	return in
}

func emptyNotNullRecords(in []core.QueryRecord) []core.QueryRecord {
	if in == nil {
		return []core.QueryRecord{}
	}
	return in
}
