package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/resolver"
)

func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 100)
	filter := library.MovieFilter{
		Skipped:      queryBool(r, "skipped"),
		MissingDate:  queryBool(r, "missing_date"),
		HasVideoFile: queryBool(r, "has_video_file"),
		Source:       queryString(r, "source"),
		Search:       queryString(r, "q"),
		Limit:        limit,
		Offset:       offset,
	}

	movies, total, err := s.deps.Library.ListMovies(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listMoviesResponse{
		Items:  make([]movieResponse, len(movies)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, m := range movies {
		resp.Items[i] = movieToResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getMovie(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Library.GetMovie(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, movieToResponse(m))
}

func (s *Server) deleteMovie(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Library.DeleteMovie(r.PathValue("id"), library.ActorManual); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setMovieDate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	date, source, ok := decodeSetDate(w, r)
	if !ok {
		return
	}

	if err := s.deps.Library.SetMovieDate(id, date, source, library.ActorManual); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	m, err := s.deps.Library.GetMovie(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, movieToResponse(m))
}

// decodeSetDate reads a date-override body. A missing source tags the
// date as a manual entry.
func decodeSetDate(w http.ResponseWriter, r *http.Request) (date time.Time, source string, ok bool) {
	var req setDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return date, "", false
	}
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "INVALID_DATE", "date is required")
		return date, "", false
	}
	parsed, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return date, "", false
	}
	source = req.Source
	if source == "" {
		source = resolver.SourceManual
	}
	return parsed, source, true
}

func movieToResponse(m *library.Movie) movieResponse {
	return movieResponse{
		IMDbID:       m.IMDbID,
		Title:        m.Title,
		Year:         m.Year,
		Path:         m.Path,
		Released:     m.Released,
		DateAdded:    m.DateAdded,
		Source:       m.Source,
		Skipped:      m.Skipped,
		SkipReason:   m.SkipReason,
		HasVideoFile: m.HasVideoFile,
		LastUpdated:  m.LastUpdated,
	}
}

func (s *Server) listSeries(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 100)
	filter := library.SeriesFilter{
		Search: queryString(r, "q"),
		Limit:  limit,
		Offset: offset,
	}

	series, total, err := s.deps.Library.ListSeries(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listSeriesResponse{
		Items:  make([]seriesResponse, len(series)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, sr := range series {
		resp.Items[i] = seriesToResponse(sr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getSeries(w http.ResponseWriter, r *http.Request) {
	sr, err := s.deps.Library.GetSeries(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Series not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, seriesToResponse(sr))
}

func (s *Server) listEpisodes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	filter := library.EpisodeFilter{
		SeriesID:    &id,
		Skipped:     queryBool(r, "skipped"),
		MissingDate: queryBool(r, "missing_date"),
	}
	if v := queryString(r, "season"); v != nil {
		n, err := strconv.Atoi(*v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SEASON", "season must be an integer")
			return
		}
		filter.Season = &n
	}

	episodes, total, err := s.deps.Library.ListEpisodes(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listEpisodesResponse{
		Items: make([]episodeResponse, len(episodes)),
		Total: total,
	}
	for i, ep := range episodes {
		resp.Items[i] = episodeToResponse(ep)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteSeries(w http.ResponseWriter, r *http.Request) {
	sr, episodes, err := s.deps.Library.DeleteSeries(r.PathValue("id"), library.ActorManual)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Series not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, deleteSeriesResponse{
		IMDbID:          sr.IMDbID,
		Title:           sr.Title,
		RemovedEpisodes: len(episodes),
	})
}

func (s *Server) setEpisodeDate(w http.ResponseWriter, r *http.Request) {
	seriesID := r.PathValue("series")
	season, err := pathInt(r, "season")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "season must be an integer")
		return
	}
	episode, err := pathInt(r, "episode")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "episode must be an integer")
		return
	}

	date, source, ok := decodeSetDate(w, r)
	if !ok {
		return
	}

	if err := s.deps.Library.SetEpisodeDate(seriesID, season, episode, date, source, library.ActorManual); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Episode not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	ep, err := s.deps.Library.GetEpisode(seriesID, season, episode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, episodeToResponse(ep))
}

func seriesToResponse(sr *library.Series) seriesResponse {
	return seriesResponse{
		IMDbID:      sr.IMDbID,
		Title:       sr.Title,
		Year:        sr.Year,
		Path:        sr.Path,
		LastUpdated: sr.LastUpdated,
	}
}

func episodeToResponse(ep *library.Episode) episodeResponse {
	return episodeResponse{
		SeriesID:     ep.SeriesID,
		Season:       ep.Season,
		Episode:      ep.Episode,
		Title:        ep.Title,
		Aired:        ep.Aired,
		DateAdded:    ep.DateAdded,
		Source:       ep.Source,
		Skipped:      ep.Skipped,
		SkipReason:   ep.SkipReason,
		HasVideoFile: ep.HasVideoFile,
		LastUpdated:  ep.LastUpdated,
	}
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Library.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Movies:   statsBucket(st.Movies),
		Episodes: statsBucket(st.Episodes),
		Series:   st.Series,
		BySource: st.BySource,
	})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 100)
	filter := library.HistoryFilter{
		EntityKey: queryString(r, "entity_key"),
		Actor:     queryString(r, "actor"),
		Limit:     limit,
		Offset:    offset,
	}
	if v := queryString(r, "entity_type"); v != nil {
		mt := library.MediaType(*v)
		filter.EntityType = &mt
	}
	if v := queryString(r, "action"); v != nil {
		a := library.HistoryAction(*v)
		filter.Action = &a
	}

	entries, total, err := s.deps.Library.History(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listHistoryResponse{
		Items:  make([]historyResponse, len(entries)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i, e := range entries {
		resp.Items[i] = historyResponse{
			ID:         e.ID,
			EntityType: string(e.EntityType),
			EntityKey:  e.EntityKey,
			Action:     string(e.Action),
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			Actor:      e.Actor,
			OccurredAt: e.OccurredAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
