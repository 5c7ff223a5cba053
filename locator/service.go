// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package locator

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/honeycombio/beeline-go/wrappers/hnynethttp"
	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/query"
	"github.com/maryambaig33/HallMark/locator/session"
)

const sessionCookie = "locator_session"

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type Service struct {
	mux      *http.ServeMux
	sessions *session.Store
	brand    string
}

func NewService(sessions *session.Store, brand string) *Service {
	s := &Service{
		mux:      http.NewServeMux(),
		sessions: sessions,
		brand:    brand,
	}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/search", s.handleSearch)
	s.mux.HandleFunc("/locate", s.handleLocate)
	s.mux.HandleFunc("/locate/report", s.handleReport)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/ws", s.handleStream)
	s.mux.HandleFunc("/heartbeat", s.handleHeartbeat)
	return s
}

func (s *Service) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(rw, r)
}

func (s *Service) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, hnynethttp.WrapHandler(s.mux))
}

func (s *Service) handleHeartbeat(rw http.ResponseWriter, r *http.Request) {
	_, _ = rw.Write([]byte("store-locator"))
}

// existingSession returns the caller's session if they have one we know about.
func (s *Service) existingSession(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return s.sessions.Get(c.Value)
}

// session returns the caller's session, starting a new one if they don't have one we know about.
func (s *Service) session(rw http.ResponseWriter, r *http.Request) *session.Session {
	if sess, ok := s.existingSession(r); ok {
		return sess
	}
	sess := s.sessions.Create(query.ContextWith(r.Context(), r))
	http.SetCookie(rw, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func requirePost(rw http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		rw.Header().Set("Allow", http.MethodPost)
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeState(rw http.ResponseWriter, status int, st session.State) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(st); err != nil {
		log.Printf("Writing state failed: %v", err)
	}
}

// finish answers an action either with the new state (for scripts) or by sending the browser back to the page.
func finish(rw http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if !wantsJSON(r) {
		http.Redirect(rw, r, "/", http.StatusSeeOther)
		return
	}
	switch {
	case err == nil:
		writeState(rw, http.StatusAccepted, sess.Controller.State())
	case errors.Is(err, session.ErrEmptyQuery):
		http.Error(rw, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrSearchInProgress), errors.Is(err, session.ErrLocating):
		http.Error(rw, err.Error(), http.StatusConflict)
	default:
		http.Error(rw, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) handleIndex(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(rw, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.session(rw, r)
	ctx := query.ContextWith(r.Context(), r)
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, buildView(ctx, s.brand, sess.Controller.State())); err != nil {
		log.Printf("Rendering page failed: %v", err)
		http.Error(rw, "rendering failed", http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = rw.Write(buf.Bytes())
}

func (s *Service) handleSearch(rw http.ResponseWriter, r *http.Request) {
	if !requirePost(rw, r) {
		return
	}
	sess := s.session(rw, r)
	err := sess.Controller.Submit(query.ContextWith(r.Context(), r), r.PostFormValue("q"))
	if err != nil {
		log.Printf("Search not started: %v", err)
	}
	finish(rw, r, sess, err)
}

func (s *Service) handleLocate(rw http.ResponseWriter, r *http.Request) {
	if !requirePost(rw, r) {
		return
	}
	sess := s.session(rw, r)
	err := sess.Controller.Locate(query.ContextWith(r.Context(), r))
	if err != nil {
		log.Printf("Locate not started: %v", err)
	}
	finish(rw, r, sess, err)
}

func parseReport(r *http.Request) (geo.Report, error) {
	if reason := r.PostFormValue("error"); reason != "" {
		switch reason {
		case "denied", "unavailable", "timeout", "unsupported":
			return geo.Report{Error: reason}, nil
		}
		return geo.Report{}, errors.New("unknown location error")
	}
	lat, err := strconv.ParseFloat(r.PostFormValue("lat"), 64)
	if err != nil {
		return geo.Report{}, errors.New("bad latitude")
	}
	lon, err := strconv.ParseFloat(r.PostFormValue("lon"), 64)
	if err != nil {
		return geo.Report{}, errors.New("bad longitude")
	}
	coords := geo.Coordinates{Latitude: lat, Longitude: lon}
	if !coords.Valid() {
		return geo.Report{}, errors.New("coordinates out of range")
	}
	return geo.Report{Coordinates: &coords}, nil
}

func (s *Service) handleReport(rw http.ResponseWriter, r *http.Request) {
	if !requirePost(rw, r) {
		return
	}
	sess, ok := s.existingSession(r)
	if !ok {
		http.Error(rw, "not looking for a location", http.StatusConflict)
		return
	}
	report, err := parseReport(r)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.Controller.Report(report); err != nil {
		http.Error(rw, err.Error(), http.StatusConflict)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleState(rw http.ResponseWriter, r *http.Request) {
	sess, ok := s.existingSession(r)
	if !ok {
		http.Error(rw, "no session", http.StatusNotFound)
		return
	}
	writeState(rw, http.StatusOK, sess.Controller.State())
}
