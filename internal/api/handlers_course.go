package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dgallion1/snapedit/internal/fragment"
)

// handlePage renders the course page. With partial rendering only the
// general section is rendered; the rest are loaded on demand.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	c := s.store.Course()
	for _, sec := range c.Sections {
		sec.Loaded = !s.cfg.Course.PartialRender || sec.Number == 0
	}
	if c.ShortName == "" {
		c.ShortName = s.cfg.Course.ShortName
	}
	if c.Title == "" {
		c.Title = c.ShortName
	}
	c.ID = s.cfg.Course.ID
	markup, err := s.renderer.Page(c, string(s.cfg.Course.Format))
	if err != nil {
		jsonError(w, "failed to render page: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeHTML(w, markup)
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	markup, err := s.renderer.Chapters(s.store.Course().Chapters())
	if err != nil {
		jsonError(w, "failed to render chapters: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeHTML(w, markup)
}

// handleSectionFragment renders one section for the lazy loader.
func (s *Server) handleSectionFragment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courseID, err := strconv.Atoi(q.Get("courseid"))
	if err != nil || courseID != s.cfg.Course.ID {
		jsonError(w, "course not found", http.StatusNotFound)
		return
	}
	if q.Get("contextid") != strconv.Itoa(s.cfg.Course.ContextID) {
		jsonError(w, "context does not match course", http.StatusBadRequest)
		return
	}
	n, err := strconv.Atoi(q.Get("section"))
	if err != nil {
		jsonError(w, "section query parameter must be a number", http.StatusBadRequest)
		return
	}

	sec, err := s.store.Section(n)
	if err != nil {
		ajaxError(w, r, err)
		return
	}
	sec.Loaded = true
	markup, err := s.renderer.Section(courseID, sec)
	if err != nil {
		jsonError(w, "failed to render section: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeHTML(w, markup)
}

func (s *Server) renderTOC() (string, error) {
	return s.renderer.TOC(fragment.CourseTOC(s.store.Course()))
}

func writeHTML(w http.ResponseWriter, markup string) {
	writeJSON(w, map[string]string{"html": markup})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ajaxError reports a rejected operation the way the editing service does:
// a successful response carrying the error.
func ajaxError(w http.ResponseWriter, r *http.Request, err error) {
	noteFailure(r.Context(), err.Error())
	writeJSON(w, map[string]string{"error": err.Error()})
}
