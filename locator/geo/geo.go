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

package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Timeout bounds a single location attempt.
const Timeout = 10 * time.Second

// Coordinates are WGS84 degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

type Status string

const (
	StatusIdle     Status = "idle"
	StatusLocating Status = "locating"
	StatusLocated  Status = "located"
	StatusError    Status = "error"
)

// ErrUnsupported is returned when the platform has no way to provide a location.
var ErrUnsupported = errors.New("geolocation is not supported")

// ResolutionError means the platform refused or failed to produce a position.
type ResolutionError struct {
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not resolve location (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("could not resolve location (%s)", e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

type Locator interface {
	// Locate makes exactly one attempt to find the user, giving up after Timeout.
	Locate(ctx context.Context) (Coordinates, error)
}

// Report is what the browser tells us after asking navigator.geolocation.
type Report struct {
	Coordinates *Coordinates
	// Error is one of "denied", "unavailable", "timeout" or "unsupported".
	Error string
}

func (r Report) result() (Coordinates, error) {
	switch {
	case r.Error == "unsupported":
		return Coordinates{}, ErrUnsupported
	case r.Error != "":
		return Coordinates{}, &ResolutionError{Reason: r.Error}
	case r.Coordinates == nil:
		return Coordinates{}, &ResolutionError{Reason: "no position"}
	case !r.Coordinates.Valid():
		return Coordinates{}, &ResolutionError{Reason: "invalid position"}
	}
	return *r.Coordinates, nil
}

// ReportGrace is how much longer than Timeout we wait for the browser. Its own lookup is bounded by
// Timeout, but the permission prompt and the round trips on either side of it are not.
const ReportGrace = 20 * time.Second

// ReportLocator resolves a location attempt from a report the browser posts back to us.
// It takes one report per attempt, and only while an attempt is open.
type ReportLocator struct {
	mu      sync.Mutex
	reports chan Report
	armed   bool
	timeout time.Duration
	grace   time.Duration
}

func NewReportLocator() *ReportLocator {
	return &ReportLocator{
		reports: make(chan Report, 1),
		timeout: Timeout,
		grace:   ReportGrace,
	}
}

// Reset throws away any report left over from an earlier attempt and opens a new one.
func (l *ReportLocator) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.reports:
	default:
	}
	l.armed = true
}

// Report delivers the outcome of the open attempt. It returns false if no attempt is open,
// or the attempt already has its report.
func (l *ReportLocator) Report(r Report) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.armed {
		return false
	}
	select {
	case l.reports <- r:
		l.armed = false
		return true
	default:
		return false
	}
}

func (l *ReportLocator) Locate(ctx context.Context) (Coordinates, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout+l.grace)
	defer cancel()
	select {
	case r := <-l.reports:
		return r.result()
	case <-ctx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.armed = false
	// A report that got in just before we closed the attempt still counts.
	select {
	case r := <-l.reports:
		return r.result()
	default:
	}
	return Coordinates{}, &ResolutionError{Reason: "timeout", Err: ctx.Err()}
}
