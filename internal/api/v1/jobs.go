package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/reconcile"
	"github.com/vmunix/datarr/internal/schedule"
)

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.deps.Jobs.ListJobs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listJobsResponse{Jobs: make([]jobResponse, len(jobs))}
	for i, j := range jobs {
		resp.Jobs[i] = jobToResponse(j)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	j := &schedule.Job{
		Name:        req.Name,
		Kind:        schedule.JobKind(req.Kind),
		Description: req.Description,
		CronExpr:    req.Cron,
		Enabled:     req.Enabled,
	}
	if req.Config != nil {
		j.Config = *req.Config
	}

	if err := s.deps.Jobs.CreateJob(j); err != nil {
		writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jobToResponse(j))
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	j, err := s.deps.Jobs.GetJob(id)
	if err != nil {
		writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(j))
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	var req updateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	j, err := s.deps.Jobs.GetJob(id)
	if err != nil {
		writeJobError(w, err)
		return
	}

	// Apply updates
	if req.Name != nil {
		j.Name = *req.Name
	}
	if req.Description != nil {
		j.Description = *req.Description
	}
	if req.Cron != nil {
		j.CronExpr = *req.Cron
	}
	if req.Enabled != nil {
		j.Enabled = *req.Enabled
	}
	if req.Config != nil {
		j.Config = *req.Config
	}

	if err := s.deps.Jobs.UpdateJob(j); err != nil {
		writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(j))
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	if err := s.deps.Jobs.DeleteJob(id); err != nil {
		writeJobError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	execID, err := s.deps.Dispatch.RunNow(id, schedule.TriggerAPI)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runResponse{ExecutionID: execID})
}

func (s *Server) enableJob(w http.ResponseWriter, r *http.Request) {
	s.setJobEnabled(w, r, true)
}

func (s *Server) disableJob(w http.ResponseWriter, r *http.Request) {
	s.setJobEnabled(w, r, false)
}

func (s *Server) setJobEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	j, err := s.deps.Jobs.SetJobEnabled(id, enabled)
	if err != nil {
		writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(j))
}

func (s *Server) listExecutions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 50)
	filter := schedule.ExecutionFilter{Limit: limit, Offset: offset}
	if v := queryString(r, "job_id"); v != nil {
		n, err := strconv.ParseInt(*v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "job_id must be an integer")
			return
		}
		filter.JobID = &n
	}
	if v := queryString(r, "status"); v != nil {
		st := schedule.ExecStatus(*v)
		filter.Status = &st
	}

	execs, total, err := s.deps.Jobs.ListExecutions(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listExecutionsResponse{
		Items:  make([]executionResponse, len(execs)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, e := range execs {
		resp.Items[i] = executionToResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getExecution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	e, err := s.deps.Jobs.GetExecution(id)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Execution not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, executionToResponse(e))
}

func (s *Server) triggerPopulate(w http.ResponseWriter, r *http.Request) {
	var req populateRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if !validMediaType(req.MediaType) {
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", fmt.Sprintf("invalid media type %q", req.MediaType))
		return
	}

	cfg := schedule.JobConfig{MediaType: req.MediaType, Paths: req.Paths, Full: req.Full}
	execID, err := s.deps.Dispatch.RunAdhoc(schedule.KindScan, cfg, schedule.TriggerAPI)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runResponse{ExecutionID: execID})
}

func (s *Server) triggerCleanup(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if !validMediaType(req.MediaType) {
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", fmt.Sprintf("invalid media type %q", req.MediaType))
		return
	}
	if !req.CheckFilesystem && !req.CheckDatabase {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"at least one of check_filesystem or check_database must be true")
		return
	}

	// Dry runs delete nothing, so they run inline and hand the report
	// straight back. Live runs go through the scheduler and leave an
	// execution record.
	if req.DryRun {
		if s.deps.Cleaner == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Cleanup engine not configured")
			return
		}
		rep, err := s.deps.Cleaner.Run(r.Context(), reconcile.Options{
			MediaType:       library.MediaType(req.MediaType),
			DryRun:          true,
			CheckFilesystem: req.CheckFilesystem,
			CheckDatabase:   req.CheckDatabase,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "CLEANUP_ERROR", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rep)
		return
	}

	if s.deps.Dispatch == nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Scheduler not configured")
		return
	}
	execID, err := s.deps.Dispatch.RunAdhoc(schedule.KindCleanup, schedule.JobConfig{
		MediaType:       req.MediaType,
		CheckFilesystem: req.CheckFilesystem,
		CheckDatabase:   req.CheckDatabase,
	}, schedule.TriggerAPI)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runResponse{ExecutionID: execID})
}

// decodeOptional decodes a JSON body, treating an empty body as the
// zero request.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func validMediaType(s string) bool {
	switch s {
	case "", string(library.MediaTypeMovie), string(library.MediaTypeSeries):
		return true
	}
	return false
}

// writeJobError maps job store errors onto API error codes.
func writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalid):
		writeError(w, http.StatusBadRequest, "INVALID_JOB", err.Error())
	case errors.Is(err, schedule.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE", "Job name already exists")
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
	default:
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
	}
}

func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
	case errors.Is(err, schedule.ErrJobRunning):
		writeError(w, http.StatusConflict, "JOB_RUNNING", err.Error())
	case errors.Is(err, schedule.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Scheduler not running")
	default:
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
	}
}

func jobToResponse(j *schedule.Job) jobResponse {
	return jobResponse{
		ID:          j.ID,
		Name:        j.Name,
		Kind:        string(j.Kind),
		Description: j.Description,
		Cron:        j.CronExpr,
		Enabled:     j.Enabled,
		Config:      j.Config,
		LastRunAt:   j.LastRunAt,
		NextRunAt:   j.NextRunAt,
		RunCount:    j.RunCount,
	}
}

func executionToResponse(e *schedule.Execution) executionResponse {
	resp := executionResponse{
		ID:          e.ID,
		JobID:       e.JobID,
		StartedAt:   e.StartedAt,
		FinishedAt:  e.FinishedAt,
		Status:      string(e.Status),
		Processed:   e.Processed,
		Skipped:     e.Skipped,
		Failed:      e.Failed,
		Error:       e.Error,
		TriggeredBy: e.TriggeredBy,
	}
	if e.Report != "" {
		resp.Report = json.RawMessage(e.Report)
	}
	return resp
}
