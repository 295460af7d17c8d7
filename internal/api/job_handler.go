package api

import (
	"net/http"
	"strconv"
)

// ListJobs возвращает jobs очереди с фильтрацией.
// GET /api/v1/jobs?channel=...&interval=...&limit=...
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	interval := r.URL.Query().Get("interval")

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	jobs, err := h.jobRepo.List(r.Context(), channel, interval, limit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]JobResponse, len(jobs))
	for i := range jobs {
		result[i] = JobFromDomain(jobs[i])
	}

	List(w, result, len(result))
}
