package server

import (
	"net/http"
	"strconv"

	"terracurve/internal/events"
	"terracurve/internal/heatmap"
	"terracurve/internal/metrics"
	"terracurve/internal/models"
	"terracurve/internal/seasonal"

	"go.uber.org/zap"
)

func (s *Server) geometry(r *http.Request) (heatmap.Geometry, error) {
	width := s.canvasWidth
	if v := r.URL.Query().Get("width"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			width = f
		}
	}
	return heatmap.NewGeometry(width)
}

func (s *Server) renderGrid(r *http.Request) (heatmap.Geometry, heatmap.Grid, error) {
	g, err := s.geometry(r)
	if err != nil {
		return g, heatmap.Grid{}, err
	}
	var grid heatmap.Grid
	s.coord.Read(func(st *seasonal.Store) {
		grid, err = g.Render(st)
	})
	return g, grid, err
}

// handleHeatmap returns the cell projection of the year
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	_, grid, err := s.renderGrid(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// handleHeatmapPNG paints the heatmap server side
func (s *Server) handleHeatmapPNG(w http.ResponseWriter, r *http.Request) {
	g, grid, err := s.renderGrid(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := g.WritePNG(w, grid); err != nil {
		s.log.Warn("heatmap png write failed", zap.Error(err))
	}
}

type pointRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width,omitempty"`
	Discard bool    `json:"discard,omitempty"`
}

// handleHeatmapSelect selects the day under a canvas click
func (s *Server) handleHeatmapSelect(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	width := req.Width
	if width == 0 {
		width = s.canvasWidth
	}
	g, err := heatmap.NewGeometry(width)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	day, ok := g.HitTest(req.X, req.Y)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"hit": false})
		return
	}
	s.selectDay(w, r, day, req.Discard)
}

// handleDayInfo returns the tooltip figures and curve of a day
func (s *Server) handleDayInfo(w http.ResponseWriter, r *http.Request) {
	day := intVar(r, "day")
	var (
		info  seasonal.DayInfo
		curve models.DayCurve
		err   error
	)
	s.coord.Read(func(st *seasonal.Store) {
		if info, err = st.DayInfo(day); err == nil {
			curve, err = st.Day(day)
		}
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"info":  info,
		"curve": curve,
	})
}

// handleSelectDay opens a day in the editor
func (s *Server) handleSelectDay(w http.ResponseWriter, r *http.Request) {
	s.selectDay(w, r, intVar(r, "day"), queryBool(r, "discard"))
}

func (s *Server) selectDay(w http.ResponseWriter, r *http.Request, day int, discard bool) {
	var resp curveResponse
	err := s.coord.Exclusive(func(st *seasonal.Store) error {
		cur, ok := st.Selected()
		switch {
		case ok && cur == day && !discard:
			// Reopening the open day keeps its edits.
		case st.Dirty() && !discard:
			return errUnsavedChanges
		default:
			if err := st.SelectDay(day); err != nil {
				return err
			}
		}
		var err error
		resp, err = s.curveState(st)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(r.Context(), models.EventDaySelected, events.Day(day), models.DayLabel(day))
	writeJSON(w, http.StatusOK, resp)
}

type navigateRequest struct {
	Delta   int  `json:"delta"`
	Discard bool `json:"discard,omitempty"`
}

// handleNavigate moves the selection to the previous or next day
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	var resp curveResponse
	var day int
	err := s.coord.Exclusive(func(st *seasonal.Store) error {
		var err error
		if req.Delta == 0 {
			resp, err = s.curveState(st)
			day = resp.Day
			return err
		}
		if st.Dirty() && !req.Discard {
			return errUnsavedChanges
		}
		if day, err = st.Navigate(req.Delta); err != nil {
			return err
		}
		resp, err = s.curveState(st)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(r.Context(), models.EventDaySelected, events.Day(day), models.DayLabel(day))
	writeJSON(w, http.StatusOK, resp)
}

// handleCommitDay sends the working curve to the controller and commits it
func (s *Server) handleCommitDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.coord.SaveDay(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.RecordCurveEdit("commit", false)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"day":    day,
		"label":  models.DayLabel(day),
	})
}

// handleCloseDay closes the editor
func (s *Server) handleCloseDay(w http.ResponseWriter, r *http.Request) {
	discard := queryBool(r, "discard")
	err := s.coord.Exclusive(func(st *seasonal.Store) error {
		if st.Dirty() && !discard {
			return errUnsavedChanges
		}
		st.ClearSelection()
		s.view.Attach(nil)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(r.Context(), models.EventSelectionClosed, nil, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
