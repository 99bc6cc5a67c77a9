package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"terracurve/internal/models"

	"github.com/gorilla/mux"
)

// handleListProfiles returns the profiles stored on the controller
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.coord.ListProfiles(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	current, _ := s.coord.Current()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": names,
		"current":  current,
	})
}

// handleCurrentProfile returns the loaded profile and its configuration
func (s *Server) handleCurrentProfile(w http.ResponseWriter, r *http.Request) {
	name, cfg := s.coord.Current()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":   name,
		"config": cfg,
		"busy":   s.coord.Busy(),
	})
}

// handleImport reads a profile document into the session
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.coord.Import(r.Context(), r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleLoadProfile loads a stored profile into the session
func (s *Server) handleLoadProfile(w http.ResponseWriter, r *http.Request) {
	res, err := s.coord.LoadProfile(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": res,
		"year":   s.yearState(),
	})
}

// handleSaveProfile stores the session on the controller
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	res, err := s.coord.SaveProfile(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleActivateProfile switches the controller's running profile
func (s *Server) handleActivateProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.ActivateProfile(r.Context(), mux.Vars(r)["name"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

type renameRequest struct {
	To string `json:"to"`
}

// handleRenameProfile renames a stored profile
func (s *Server) handleRenameProfile(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if err := s.coord.RenameProfile(r.Context(), mux.Vars(r)["name"], req.To); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "name": req.To})
}

// handleDeleteProfile removes a stored profile
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.DeleteProfile(r.Context(), mux.Vars(r)["name"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleExport downloads the session as <name>.json or <name>.bin
func (s *Server) handleExport(bin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exp, err := s.coord.Export(mux.Vars(r)["name"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		filename, contentType, body := exp.ConfigName, "application/json", exp.Config
		if bin {
			filename, contentType, body = exp.SeasonalName, "application/octet-stream", exp.Seasonal
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

type generateRequest struct {
	From int `json:"from,omitempty"`
	To   int `json:"to,omitempty"`
}

// handleGenerateSeasonal replaces the matrix with archived climate averages
func (s *Server) handleGenerateSeasonal(w http.ResponseWriter, r *http.Request) {
	req := generateRequest{From: s.fromYear, To: s.toYear}
	if err := decodeJSON(r, &req); err != nil && err != io.EOF {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if req.From == 0 || req.To == 0 || req.From > req.To {
		badRequest(w, fmt.Sprintf("invalid year range %d..%d", req.From, req.To))
		return
	}
	res, err := s.coord.GenerateSeasonal(r.Context(), req.From, req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": res,
		"year":   s.yearState(),
	})
}

// handleEvents returns the archived event history
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"events": []models.Event{}})
		return
	}
	list, err := s.history.RecentEvents(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": list})
}
