package server

import (
	"net/http"

	"terracurve/internal/models"
	"terracurve/internal/seasonal"
)

type yearResponse struct {
	Summary seasonal.Summary `json:"summary"`
	Days    int              `json:"days"`
	Curve   *curveResponse   `json:"curve,omitempty"`
	Changed int              `json:"changed,omitempty"`
}

// yearState reports the matrix summary and, when a day is open, its
// working curve. Bulk edits replace the working copy, so the view follows.
func (s *Server) yearState() yearResponse {
	var resp yearResponse
	s.coord.Read(func(st *seasonal.Store) {
		resp.Summary = st.YearlyMinMaxAvg()
		resp.Days = st.Days()
		if c, err := s.curveState(st); err == nil {
			resp.Curve = &c
		} else {
			s.view.Attach(nil)
		}
	})
	return resp
}

// handleYearSummary returns min/max/avg over the whole matrix
func (s *Server) handleYearSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.yearState())
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

// handleApplyYear copies the working curve onto every day of the year
func (s *Server) handleApplyYear(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if err := s.coord.ApplyToYear(r.Context(), req.Confirm); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.yearState())
}

// handleAnomalies lists outlier days and months worth smoothing
func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	var (
		anomalies []models.Anomaly
		err       error
	)
	s.coord.Read(func(st *seasonal.Store) {
		anomalies, err = s.detector.DetectAnomalies(st)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if anomalies == nil {
		anomalies = []models.Anomaly{}
	}
	suggestions := s.suggester.SuggestSmoothing(anomalies)
	if suggestions == nil {
		suggestions = []models.SmoothingSuggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"anomalies":   anomalies,
		"suggestions": suggestions,
	})
}

func monthVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	month := intVar(r, "month")
	if _, _, err := models.MonthRange(month); err != nil {
		badRequest(w, err.Error())
		return 0, false
	}
	return month, true
}

// handleSmoothMonth smooths one month on the controller and locally
func (s *Server) handleSmoothMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthVar(w, r)
	if !ok {
		return
	}
	if err := s.coord.SmoothMonth(r.Context(), month, queryBool(r, "discard")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.yearState())
}

type rangeRequest struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// handleCapMonth limits every value of a month to a range
func (s *Server) handleCapMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthVar(w, r)
	if !ok {
		return
	}
	var req rangeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	changed, err := s.coord.CapMonth(r.Context(), month, req.Min, req.Max, queryBool(r, "discard"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := s.yearState()
	resp.Changed = changed
	writeJSON(w, http.StatusOK, resp)
}

type copyRequest struct {
	Day int `json:"day"`
}

// handleCopyDayToMonth copies one day onto every day of a month
func (s *Server) handleCopyDayToMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthVar(w, r)
	if !ok {
		return
	}
	var req copyRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if err := s.coord.CopyDayToMonth(r.Context(), req.Day, month, queryBool(r, "discard")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.yearState())
}

// handleGetBounds returns the safety range
func (s *Server) handleGetBounds(w http.ResponseWriter, r *http.Request) {
	var lo, hi float64
	s.coord.Read(func(st *seasonal.Store) {
		lo, hi = st.Bounds().Range()
	})
	writeJSON(w, http.StatusOK, rangeRequest{Min: lo, Max: hi})
}

// handleSetBounds changes the safety range and re-clamps the working curve
func (s *Server) handleSetBounds(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	clamped, err := s.coord.SetBounds(r.Context(), req.Min, req.Max)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"min":     req.Min,
		"max":     req.Max,
		"clamped": clamped,
	})
}
