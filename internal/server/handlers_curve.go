package server

import (
	"fmt"
	"net/http"

	"terracurve/internal/curve"
	"terracurve/internal/editor"
	"terracurve/internal/events"
	"terracurve/internal/metrics"
	"terracurve/internal/models"
	"terracurve/internal/seasonal"

	"github.com/gorilla/mux"
)

type curveResponse struct {
	Day      int                     `json:"day"`
	Label    string                  `json:"label"`
	Curve    models.DayCurve         `json:"curve"`
	Extended models.ExtendedDayCurve `json:"extended"`
	Points   []editor.Point          `json:"points"`
	YMin     float64                 `json:"y_min"`
	YMax     float64                 `json:"y_max"`
	State    string                  `json:"state"`
	Dirty    bool                    `json:"dirty"`
	Edit     *editor.Edit            `json:"edit,omitempty"`
	Clamped  int                     `json:"clamped,omitempty"`
}

// syncView follows the store's working copy, which bulk operations replace.
func (s *Server) syncView(st *seasonal.Store) {
	if w := st.Working(); s.view.Model() != w {
		s.view.Attach(w)
	}
}

// curveState must run inside the session lock.
func (s *Server) curveState(st *seasonal.Store) (curveResponse, error) {
	day, ok := st.Selected()
	if !ok {
		return curveResponse{}, seasonal.ErrNoDaySelected
	}
	s.syncView(st)
	w := st.Working()
	lo, hi := s.view.YRange()
	return curveResponse{
		Day:      day,
		Label:    models.DayLabel(day),
		Curve:    w.Curve(),
		Extended: w.Extended(),
		Points:   s.view.Points(),
		YMin:     lo,
		YMax:     hi,
		State:    s.view.State().String(),
		Dirty:    w.Dirty(),
	}, nil
}

// editCurve runs fn against the working curve and answers with the new state.
func (s *Server) editCurve(w http.ResponseWriter, r *http.Request, kind string, fn func(m *curve.Model) (int, error)) {
	var resp curveResponse
	err := s.coord.Exclusive(func(st *seasonal.Store) error {
		m := st.Working()
		if m == nil {
			return seasonal.ErrNoDaySelected
		}
		clamped, err := fn(m)
		if err != nil {
			return err
		}
		resp, err = s.curveState(st)
		resp.Clamped = clamped
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.RecordCurveEdit(kind, resp.Clamped > 0)
	s.publish(r.Context(), models.EventCurveEdited, events.Day(resp.Day), kind)
	writeJSON(w, http.StatusOK, resp)
}

// handleGetCurve returns the working curve of the selected day
func (s *Server) handleGetCurve(w http.ResponseWriter, r *http.Request) {
	var resp curveResponse
	err := s.coord.Exclusive(func(st *seasonal.Store) error {
		var err error
		resp, err = s.curveState(st)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type replaceRequest struct {
	Values []float64 `json:"values"`
}

// handleReplaceCurve replaces all 24 hours
func (s *Server) handleReplaceCurve(w http.ResponseWriter, r *http.Request) {
	var req replaceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	s.editCurve(w, r, "replace", func(m *curve.Model) (int, error) {
		return m.ReplaceAll(req.Values)
	})
}

type hourRequest struct {
	Value float64 `json:"value"`
}

// handleSetHour sets one hour, clamped to the safety range
func (s *Server) handleSetHour(w http.ResponseWriter, r *http.Request) {
	var req hourRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	hour := intVar(r, "hour")
	s.editCurve(w, r, "hour", func(m *curve.Model) (int, error) {
		applied, err := m.SetHour(hour, req.Value)
		if err != nil {
			return 0, err
		}
		if applied != req.Value {
			return 1, nil
		}
		return 0, nil
	})
}

type gestureRequest struct {
	Type    string         `json:"type"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Touches []editor.Point `json:"touches,omitempty"`
}

// handlePointer feeds mouse events to the editor view
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	p := editor.Point{X: req.X, Y: req.Y}
	switch req.Type {
	case "down":
		s.gesture(w, r, func() (editor.Edit, bool) { return s.view.PointerDown(p) })
	case "move":
		s.gesture(w, r, func() (editor.Edit, bool) { return s.view.PointerMove(p) })
	case "up":
		s.gesture(w, r, func() (editor.Edit, bool) { s.view.PointerUp(); return editor.Edit{}, false })
	case "leave":
		s.gesture(w, r, func() (editor.Edit, bool) { s.view.PointerLeave(); return editor.Edit{}, false })
	default:
		badRequest(w, fmt.Sprintf("unknown pointer event %q", req.Type))
	}
}

// handleTouch feeds touch events to the editor view; only single touches edit
func (s *Server) handleTouch(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	switch req.Type {
	case "start":
		s.gesture(w, r, func() (editor.Edit, bool) { return s.view.TouchStart(req.Touches) })
	case "move":
		s.gesture(w, r, func() (editor.Edit, bool) { return s.view.TouchMove(req.Touches) })
	case "end":
		s.gesture(w, r, func() (editor.Edit, bool) { s.view.TouchEnd(); return editor.Edit{}, false })
	default:
		badRequest(w, fmt.Sprintf("unknown touch event %q", req.Type))
	}
}

// gesture applies one view transition. A gesture ending after a drag
// publishes a single curve edit.
func (s *Server) gesture(w http.ResponseWriter, r *http.Request, step func() (editor.Edit, bool)) {
	var (
		resp     curveResponse
		ended    bool
		didApply bool
	)
	err := s.coord.Exclusive(func(st *seasonal.Store) error {
		if st.Working() == nil {
			return seasonal.ErrNoDaySelected
		}
		s.syncView(st)
		wasDragging := s.view.State() == editor.Dragging
		edit, ok := step()
		ended = wasDragging && s.view.State() == editor.Idle
		var err error
		resp, err = s.curveState(st)
		if ok {
			didApply = true
			resp.Edit = &edit
		}
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if didApply {
		metrics.RecordCurveEdit("drag", resp.Edit.Clamped)
	}
	if ended {
		s.publish(r.Context(), models.EventCurveEdited, events.Day(resp.Day), "drag")
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSmooth applies one circular moving-average pass
func (s *Server) handleSmooth(w http.ResponseWriter, r *http.Request) {
	s.editCurve(w, r, "smooth", func(m *curve.Model) (int, error) {
		m.Smooth()
		return 0, nil
	})
}

// handlePresets lists the preset names
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"presets": curve.Presets()})
}

// handleApplyPreset replaces the working curve with a preset shape
func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.editCurve(w, r, "preset", func(m *curve.Model) (int, error) {
		if !m.ApplyPreset(name) {
			return 0, fmt.Errorf("%w: unknown preset %q", errUnknownPreset, name)
		}
		return 0, nil
	})
}

// handleWeatherCurve loads today's forecast as the working curve
func (s *Server) handleWeatherCurve(w http.ResponseWriter, r *http.Request) {
	clamped, err := s.coord.WeatherCurve(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	var resp curveResponse
	err = s.coord.Exclusive(func(st *seasonal.Store) error {
		var err error
		resp, err = s.curveState(st)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp.Clamped = clamped
	s.publish(r.Context(), models.EventCurveEdited, events.Day(resp.Day), "weather")
	writeJSON(w, http.StatusOK, resp)
}
