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

package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/honeycombio/beeline-go"
	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/places"
	"github.com/maryambaig33/HallMark/locator/quota"
	"github.com/maryambaig33/HallMark/locator/search"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSearching Phase = "searching"
	PhaseSuccess   Phase = "success"
	PhaseEmpty     Phase = "empty"
	PhaseFailed    Phase = "failed"
)

// AutoSearch tracks the one search we run for the user when their location first comes in.
type AutoSearch string

const (
	AutoSearchPending    AutoSearch = "pending"
	AutoSearchAttempted  AutoSearch = "attempted"
	AutoSearchSuppressed AutoSearch = "suppressed"
)

const NoResultsAdvisory = "We couldn't find any specific stores matching that request nearby. Try a broader area or different search terms."

const genericError = "An unexpected error occurred."

var (
	ErrEmptyQuery       = search.ErrEmptyQuery
	ErrSearchInProgress = errors.New("a search is already in progress")
	ErrLocating         = errors.New("already looking for the user's location")
	ErrNotLocating      = errors.New("not looking for the user's location")
)

type Searcher interface {
	Search(ctx context.Context, query string, loc *geo.Coordinates) (*search.Result, error)
}

type Enricher interface {
	Enrich(ctx context.Context, stores []search.Store, from *geo.Coordinates) map[string]places.Details
}

type State struct {
	Phase       Phase                     `json:"phase"`
	Query       string                    `json:"query"`
	Summary     string                    `json:"summary"`
	Stores      []search.Store            `json:"stores"`
	Details     map[string]places.Details `json:"details,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Location    geo.Status                `json:"location_status"`
	Coordinates *geo.Coordinates          `json:"coordinates,omitempty"`
	AutoSearch  AutoSearch                `json:"auto_search"`
	Searches    int                       `json:"searches"`
	Version     uint64                    `json:"version"`
}

func (s State) Searching() bool {
	return s.Phase == PhaseSearching
}

type Options struct {
	// DefaultQuery is what we search for once the user's location is known.
	DefaultQuery string
	// Enricher is optional.
	Enricher Enricher
}

// Controller owns the state of one page session.
type Controller struct {
	searcher     Searcher
	locator      geo.Locator
	enricher     Enricher
	defaultQuery string

	mu      sync.Mutex
	state   State
	changed chan struct{}
	wg      sync.WaitGroup
}

func NewController(searcher Searcher, locator geo.Locator, opts Options) *Controller {
	return &Controller{
		searcher:     searcher,
		locator:      locator,
		enricher:     opts.Enricher,
		defaultQuery: opts.DefaultQuery,
		state: State{
			Phase:      PhaseIdle,
			Stores:     []search.Store{},
			Location:   geo.StatusIdle,
			AutoSearch: AutoSearchPending,
		},
		changed: make(chan struct{}),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Changes returns a channel that is closed the next time the state changes.
func (c *Controller) Changes() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Wait blocks until all background searches and location attempts have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) notifyLocked() {
	c.state.Version++
	close(c.changed)
	c.changed = make(chan struct{})
}

// Search runs a full search cycle and returns once the outcome is in the state.
// The returned error only reports searches that were refused; failures end up in State().Error.
func (c *Controller) Search(ctx context.Context, query string) error {
	c.mu.Lock()
	q, loc, err := c.beginLocked(query)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.notifyLocked()
	c.mu.Unlock()
	c.run(ctx, q, loc)
	return nil
}

// Submit starts a search cycle in the background. The request context's values are kept but its
// cancellation is not: once started, a search runs to completion.
func (c *Controller) Submit(ctx context.Context, query string) error {
	c.mu.Lock()
	q, loc, err := c.beginLocked(query)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.notifyLocked()
	c.wg.Add(1)
	c.mu.Unlock()
	go func() {
		defer c.wg.Done()
		c.run(context.WithoutCancel(ctx), q, loc)
	}()
	return nil
}

func (c *Controller) beginLocked(query string) (string, *geo.Coordinates, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil, ErrEmptyQuery
	}
	if c.state.Phase == PhaseSearching {
		return "", nil, ErrSearchInProgress
	}
	// Nothing from the previous search survives into this one.
	c.state.Phase = PhaseSearching
	c.state.Query = query
	c.state.Summary = ""
	c.state.Stores = []search.Store{}
	c.state.Details = nil
	c.state.Error = ""
	c.state.Searches++
	var loc *geo.Coordinates
	if c.state.Coordinates != nil {
		l := *c.state.Coordinates
		loc = &l
	}
	return query, loc, nil
}

func failureMessage(err error) string {
	if errors.Is(err, quota.ErrQuotaExceeded) {
		return quota.ExceededMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericError
}

func (c *Controller) run(ctx context.Context, query string, loc *geo.Coordinates) {
	ctx, span := beeline.StartSpan(ctx, "search_cycle")
	defer span.Send()
	result, err := c.searcher.Search(ctx, query, loc)
	if err == nil && result == nil {
		result = &search.Result{Summary: search.PlaceholderSummary}
	}
	var details map[string]places.Details
	if err == nil && len(result.Stores) > 0 && c.enricher != nil {
		details = c.enricher.Enrich(ctx, result.Stores, loc)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notifyLocked()
	if err != nil {
		span.AddField("error", err)
		log.Printf("Search failed: %v", err)
		c.state.Phase = PhaseFailed
		c.state.Error = failureMessage(err)
		return
	}
	c.state.Summary = result.Summary
	if result.Stores != nil {
		c.state.Stores = result.Stores
	}
	c.state.Details = details
	if len(c.state.Stores) == 0 {
		c.state.Phase = PhaseEmpty
		c.state.Error = NoResultsAdvisory
	} else {
		c.state.Phase = PhaseSuccess
	}
	if c.state.AutoSearch == AutoSearchPending {
		c.state.AutoSearch = AutoSearchSuppressed
	}
	span.AddField("phase", string(c.state.Phase))
	span.AddField("store_count", len(c.state.Stores))
}

// resetter is implemented by locators that may hold an outcome left over from an earlier attempt.
type resetter interface {
	Reset()
}

// reporter is implemented by locators that are told the outcome rather than finding it themselves.
type reporter interface {
	Report(r geo.Report) bool
}

// Report hands the browser's answer to the running location attempt. It fails with ErrNotLocating
// when no attempt is waiting for one.
func (c *Controller) Report(r geo.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Location != geo.StatusLocating {
		return ErrNotLocating
	}
	rep, ok := c.locator.(reporter)
	if !ok || !rep.Report(r) {
		return ErrNotLocating
	}
	return nil
}

// Locate starts one attempt to find the user. It fails with ErrLocating if an attempt is already running.
func (c *Controller) Locate(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Location == geo.StatusLocating {
		c.mu.Unlock()
		return ErrLocating
	}
	if r, ok := c.locator.(resetter); ok {
		r.Reset()
	}
	c.state.Location = geo.StatusLocating
	c.notifyLocked()
	c.wg.Add(1)
	c.mu.Unlock()
	go func() {
		defer c.wg.Done()
		ctx := context.WithoutCancel(ctx)
		coords, err := c.locator.Locate(ctx)
		c.resolve(ctx, coords, err)
	}()
	return nil
}

func (c *Controller) resolve(ctx context.Context, coords geo.Coordinates, err error) {
	c.mu.Lock()
	if err != nil {
		log.Printf("Locating user failed: %v", err)
		c.state.Location = geo.StatusError
		// A denial after an earlier fix means the user no longer wants their position used.
		c.state.Coordinates = nil
		c.notifyLocked()
		c.mu.Unlock()
		return
	}
	c.state.Location = geo.StatusLocated
	c.state.Coordinates = &coords

	var (
		q    string
		loc  *geo.Coordinates
		auto bool
	)
	if c.state.AutoSearch == AutoSearchPending && c.state.Phase != PhaseSearching && c.defaultQuery != "" {
		c.state.AutoSearch = AutoSearchAttempted
		q, loc, err = c.beginLocked(c.defaultQuery)
		auto = err == nil
	}
	c.notifyLocked()
	c.mu.Unlock()
	if auto {
		log.Printf("Location found, running default search")
		c.run(ctx, q, loc)
	}
}
