package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/advisor"
	"github.com/dvloznov/finance-dashboard/internal/api/middleware"
	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
	"github.com/dvloznov/finance-dashboard/internal/logger"
)

// AdviceHandler handles POST /api/advice.
type AdviceHandler struct {
	svc     Service
	advisor advisor.Advisor
	now     func() time.Time
}

// NewAdviceHandler creates a new advice handler. adv may be nil when no model is configured.
func NewAdviceHandler(svc Service, adv advisor.Advisor) *AdviceHandler {
	return &AdviceHandler{svc: svc, advisor: adv, now: time.Now}
}

// GetAdvice handles POST /api/advice
func (h *AdviceHandler) GetAdvice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.advisor == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Advisor is not configured")
		return
	}

	var req struct {
		Question string `json:"question"`
		Year     int    `json:"year,omitempty"`
		Month    int    `json:"month,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	period := domain.Period{Year: req.Year, Month: time.Month(req.Month)}
	if period.Year == 0 {
		period.Year = h.now().Year()
	}
	if req.Month < 0 || req.Month > 12 {
		middleware.WriteError(w, http.StatusBadRequest, "month must be between 1 and 12, or 0 for the whole year")
		return
	}

	overview, err := h.svc.Overview(ctx, middleware.UserIDFromContext(ctx), period)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "compute snapshot")
		return
	}

	advice, err := h.advisor.Advise(ctx, overview, req.Question)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to get advice")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to get advice")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"advice": advice,
		"period": period,
	})
}

// JobsHandler handles backup requests and job status endpoints.
type JobsHandler struct {
	svc   Service
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(svc Service, store jobs.JobStore) *JobsHandler {
	return &JobsHandler{svc: svc, store: store}
}

// CreateBackup handles POST /api/backups
func (h *JobsHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := h.svc.RequestBackup(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "enqueue backup")
		return
	}

	log := logger.FromContext(ctx)
	log.Info().Str("job_id", job.JobID).Msg("Backup job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}. Jobs of other users are reported as missing.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.UserID != middleware.UserIDFromContext(ctx) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs?status=&limit=&offset=
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: middleware.UserIDFromContext(ctx),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
