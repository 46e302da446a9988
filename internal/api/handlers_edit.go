package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req backend.MoveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid move request: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	switch req.Class {
	case backend.ClassResource:
		err = s.store.MoveAsset(req.ID, req.BeforeID, req.SectionID)
	case backend.ClassSection:
		err = s.store.MoveSection(req.ID, req.Value)
	default:
		jsonError(w, fmt.Sprintf("unknown item class %q", req.Class), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Info("move rejected", "class", req.Class, "id", req.ID, "error", err)
		ajaxError(w, r, err)
		return
	}
	s.log.Info("moved", "class", req.Class, "id", req.ID, "before", req.BeforeID, "section", req.SectionID, "value", req.Value)
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleEditModule(w http.ResponseWriter, r *http.Request) {
	action, err := backend.ParseModuleAction(chi.URLParam(r, "action"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmid, err := strconv.Atoi(chi.URLParam(r, "cmid"))
	if err != nil {
		jsonError(w, "module id must be a number", http.StatusBadRequest)
		return
	}

	assets, err := s.store.EditModule(action, cmid)
	if err != nil {
		ajaxError(w, r, err)
		return
	}
	markup := ""
	if action == backend.ModuleDuplicate {
		if markup, err = s.renderer.Assets(assets...); err != nil {
			jsonError(w, "failed to render assets: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}
	writeHTML(w, markup)
}

// handleSectionAction toggles visibility or highlight of a section, or
// deletes it. The response carries the re-rendered editing controls of the
// section and the table of contents.
func (s *Server) handleSectionAction(w http.ResponseWriter, r *http.Request) {
	action, err := backend.ParseSectionAction(chi.URLParam(r, "action"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "section"))
	if err != nil {
		jsonError(w, "section must be a number", http.StatusBadRequest)
		return
	}
	var body struct {
		Value int `json:"value"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	var resp backend.SectionActionResponse
	switch action {
	case backend.SectionVisibility:
		sec, err := s.store.SetVisibility(n, body.Value != 0)
		if err != nil {
			ajaxError(w, r, err)
			return
		}
		resp.ActionModel, err = s.renderer.Actions(s.cfg.Course.ID, sec)
		if err != nil {
			jsonError(w, "failed to render actions: "+err.Error(), http.StatusInternalServerError)
			return
		}
	case backend.SectionHighlight:
		sec, err := s.store.SetHighlight(n, body.Value != 0)
		if err != nil {
			ajaxError(w, r, err)
			return
		}
		resp.ActionModel, err = s.renderer.Actions(s.cfg.Course.ID, sec)
		if err != nil {
			jsonError(w, "failed to render actions: "+err.Error(), http.StatusInternalServerError)
			return
		}
	case backend.SectionDelete:
		if err := s.store.DeleteSection(n); err != nil {
			ajaxError(w, r, err)
			return
		}
	default:
		panic(fmt.Sprintf("api: unknown section action %q", action))
	}

	resp.TOC, err = s.renderTOC()
	if err != nil {
		jsonError(w, "failed to render toc: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("section action", "action", action, "section", n, "value", body.Value)
	writeJSON(w, resp)
}
