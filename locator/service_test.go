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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/search"
	"github.com/maryambaig33/HallMark/locator/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

type stubSearcher struct {
	mu      sync.Mutex
	queries []string
	locs    []*geo.Coordinates
	result  *search.Result
	err     error
}

func (s *stubSearcher) Search(_ context.Context, q string, loc *geo.Coordinates) (*search.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	s.locs = append(s.locs, loc)
	return s.result, s.err
}

func (s *stubSearcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func storesResult() *search.Result {
	return &search.Result{
		Summary: "Two **great** stores nearby.",
		Stores: []search.Store{
			{ID: "places/a", Title: "Hallmark Gold Crown", URI: "https://maps.google.com/?cid=1", Reviews: []search.Review{{Source: "Sam", Text: "Lovely ornaments"}}},
			{ID: "places/b", Title: "Card Corner", URI: "https://maps.google.com/?cid=2"},
		},
	}
}

type testService struct {
	*Service
	store  *session.Store
	cookie *http.Cookie
}

func newTestService(t *testing.T, searcher *stubSearcher) *testService {
	t.Helper()
	store := session.NewStore(NewControllerFunc(ControllerConfig{Searcher: searcher, Brand: "Hallmark"}))
	ts := &testService{Service: NewService(store, "Hallmark"), store: store}
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			ts.cookie = c
		}
	}
	require.NotNil(t, ts.cookie)
	return ts
}

func (ts *testService) do(r *http.Request) *httptest.ResponseRecorder {
	if ts.cookie != nil {
		r.AddCookie(ts.cookie)
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, r)
	return rec
}

func (ts *testService) post(path string, form url.Values, asJSON bool) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if asJSON {
		r.Header.Set("Accept", "application/json")
	}
	return ts.do(r)
}

func (ts *testService) session(t *testing.T) *session.Session {
	t.Helper()
	sess, ok := ts.store.Get(ts.cookie.Value)
	require.True(t, ok)
	return sess
}

func (ts *testService) state(t *testing.T) session.State {
	t.Helper()
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var st session.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func (ts *testService) page(t *testing.T) string {
	t.Helper()
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestIndexStartsSession(t *testing.T) {
	ts := newTestService(t, &stubSearcher{result: storesResult()})
	assert.Equal(t, 1, ts.store.Len())

	body := ts.page(t)
	assert.Contains(t, body, "Popular Searches")
	assert.Contains(t, body, "Hallmark Gold Crown stores nearby")
	assert.Contains(t, body, "Near Me")
	assert.NotContains(t, body, "Answer")
	assert.Equal(t, 1, ts.store.Len(), "the cookie should bring back the same session")
}

func TestUnknownPathIsNotFound(t *testing.T) {
	ts := newTestService(t, &stubSearcher{})
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchRendersResults(t *testing.T) {
	searcher := &stubSearcher{result: storesResult()}
	ts := newTestService(t, searcher)

	rec := ts.post("/search", url.Values{"q": {"Stores open now near me"}}, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	ts.session(t).Controller.Wait()

	st := ts.state(t)
	assert.Equal(t, session.PhaseSuccess, st.Phase)
	assert.Len(t, st.Stores, 2)
	assert.Equal(t, []string{"Stores open now near me"}, searcher.Queries())

	body := ts.page(t)
	assert.Contains(t, body, "Found 2 Locations")
	assert.Contains(t, body, "<strong>great</strong>")
	assert.Contains(t, body, `target="_blank" rel="noopener noreferrer"`)
	assert.Contains(t, body, "Lovely ornaments")
	assert.NotContains(t, body, "Popular Searches")
}

func TestSearchFormRedirects(t *testing.T) {
	ts := newTestService(t, &stubSearcher{result: storesResult()})

	rec := ts.post("/search", url.Values{"q": {"cards"}}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	ts.session(t).Controller.Wait()
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	searcher := &stubSearcher{result: storesResult()}
	ts := newTestService(t, searcher)

	rec := ts.post("/search", url.Values{"q": {"   "}}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, searcher.Queries())
}

func TestSearchRequiresPost(t *testing.T) {
	ts := newTestService(t, &stubSearcher{})
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/search?q=cards", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFailedSearchShowsMessage(t *testing.T) {
	ts := newTestService(t, &stubSearcher{err: &search.SearchFailedError{}})

	ts.post("/search", url.Values{"q": {"cards"}}, true)
	ts.session(t).Controller.Wait()

	body := ts.page(t)
	assert.Contains(t, body, "Failed to search for stores. Please try again.")
	assert.Contains(t, body, "Found 0 Locations")
}

func TestEmptySearchShowsAdvisory(t *testing.T) {
	ts := newTestService(t, &stubSearcher{result: &search.Result{Summary: "Nothing here.", Stores: []search.Store{}}})

	ts.post("/search", url.Values{"q": {"cards"}}, true)
	ts.session(t).Controller.Wait()

	st := ts.state(t)
	assert.Equal(t, session.PhaseEmpty, st.Phase)
	assert.NotNil(t, st.Stores)
	assert.Contains(t, ts.page(t), "Try a broader area or different search terms.")
}

func TestLocateRunsDefaultSearch(t *testing.T) {
	searcher := &stubSearcher{result: storesResult()}
	ts := newTestService(t, searcher)

	rec := ts.post("/locate", nil, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, geo.StatusLocating, ts.state(t).Location)
	assert.Contains(t, ts.page(t), "Locating...")

	rec = ts.post("/locate", nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.post("/locate/report", url.Values{"lat": {"40"}, "lon": {"-74"}}, true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	ts.session(t).Controller.Wait()

	st := ts.state(t)
	assert.Equal(t, geo.StatusLocated, st.Location)
	assert.Equal(t, &geo.Coordinates{Latitude: 40, Longitude: -74}, st.Coordinates)
	assert.Equal(t, []string{"Find Hallmark stores near me"}, searcher.Queries())
	assert.Equal(t, session.AutoSearchAttempted, st.AutoSearch)
}

func TestLocateDenied(t *testing.T) {
	searcher := &stubSearcher{result: storesResult()}
	ts := newTestService(t, searcher)

	ts.post("/locate", nil, true)
	rec := ts.post("/locate/report", url.Values{"error": {"denied"}}, true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	ts.session(t).Controller.Wait()

	st := ts.state(t)
	assert.Equal(t, geo.StatusError, st.Location)
	assert.Nil(t, st.Coordinates)
	assert.Empty(t, searcher.Queries())

	body := ts.page(t)
	assert.Contains(t, body, "Location Unavailable")
	assert.NotContains(t, body, "disabled>Location Unavailable")
}

func TestReportOutsideLocateIsRejected(t *testing.T) {
	ts := newTestService(t, &stubSearcher{})
	rec := ts.post("/locate/report", url.Values{"lat": {"40"}, "lon": {"-74"}}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReportValidation(t *testing.T) {
	ts := newTestService(t, &stubSearcher{result: storesResult()})
	ts.post("/locate", nil, true)

	for _, form := range []url.Values{
		{"lat": {"north"}, "lon": {"-74"}},
		{"lat": {"40"}},
		{"lat": {"100"}, "lon": {"-74"}},
		{"error": {"bored"}},
	} {
		rec := ts.post("/locate/report", form, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, form.Encode())
	}

	ts.post("/locate/report", url.Values{"error": {"unavailable"}}, true)
	ts.session(t).Controller.Wait()
	assert.Equal(t, geo.StatusError, ts.state(t).Location)
}

func TestHeartbeat(t *testing.T) {
	ts := newTestService(t, &stubSearcher{})
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/heartbeat", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamPushesChanges(t *testing.T) {
	ts := newTestService(t, &stubSearcher{result: storesResult()})
	server := httptest.NewServer(ts)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http")+"/ws", &websocket.DialOptions{
		HTTPHeader: http.Header{"Cookie": {ts.cookie.String()}},
	})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, first, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(first), "Popular Searches")

	require.NoError(t, ts.session(t).Controller.Search(ctx, "cards"))
	for {
		_, msg, err := conn.Read(ctx)
		require.NoError(t, err)
		if strings.Contains(string(msg), "Found 2 Locations") {
			break
		}
	}
}

func TestStreamNeedsSession(t *testing.T) {
	ts := newTestService(t, &stubSearcher{})
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStateWithoutSessionIsNotFound(t *testing.T) {
	ts := newTestService(t, &stubSearcher{})
	before := ts.store.Len()

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, before, ts.store.Len())
}

func TestReportWithoutSessionIsRejected(t *testing.T) {
	ts := newTestService(t, &stubSearcher{})
	before := ts.store.Len()

	r := httptest.NewRequest(http.MethodPost, "/locate/report", strings.NewReader("error=denied"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, before, ts.store.Len())
}

func TestSecondReportIsRejected(t *testing.T) {
	ts := newTestService(t, &stubSearcher{result: storesResult()})
	ts.post("/locate", nil, true)

	rec := ts.post("/locate/report", url.Values{"error": {"denied"}}, true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	ts.session(t).Controller.Wait()
	rec = ts.post("/locate/report", url.Values{"lat": {"40"}, "lon": {"-74"}}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Nil(t, ts.state(t).Coordinates)
}
