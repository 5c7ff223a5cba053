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
	"net/http/httptest"
	"testing"

	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/places"
	"github.com/maryambaig33/HallMark/locator/query"
	"github.com/maryambaig33/HallMark/locator/search"
	"github.com/maryambaig33/HallMark/locator/session"
	"github.com/stretchr/testify/assert"
)

func TestViewWhileSearching(t *testing.T) {
	v := buildView(context.Background(), "Hallmark", session.State{
		Phase:    session.PhaseSearching,
		Location: geo.StatusLocated,
		Stores:   []search.Store{},
	})
	assert.True(t, v.Searching)
	assert.True(t, v.ShowResults)
	assert.False(t, v.ShowSuggestions)
	assert.True(t, v.LocateDisabled)
	assert.True(t, v.Polling)
	assert.Equal(t, searchingHeading, v.Heading)
	assert.Len(t, v.Skeletons, 4)
	assert.Empty(t, v.Stores)
}

func TestViewIdle(t *testing.T) {
	v := buildView(context.Background(), "Hallmark", session.State{Phase: session.PhaseIdle, Location: geo.StatusIdle})
	assert.True(t, v.ShowSuggestions)
	assert.Contains(t, v.Suggestions, "Hallmark Gold Crown stores nearby")
	assert.False(t, v.ShowResults)
	assert.False(t, v.LocateDisabled)
	assert.False(t, v.Polling)
	assert.Equal(t, "Near Me", v.LocationLabel)
}

func TestViewLocating(t *testing.T) {
	v := buildView(context.Background(), "Hallmark", session.State{Phase: session.PhaseIdle, Location: geo.StatusLocating})
	assert.True(t, v.LocateDisabled)
	assert.True(t, v.Polling)
	assert.Equal(t, "Locating...", v.LocationLabel)
}

func TestViewStores(t *testing.T) {
	open := true
	km := 2.345
	v := buildView(context.Background(), "Hallmark", session.State{
		Phase:    session.PhaseSuccess,
		Location: geo.StatusLocated,
		Summary:  "Try *these*.",
		Stores: []search.Store{
			{ID: "places/a", Title: "A", URI: "https://maps.google.com/?cid=1", Reviews: []search.Review{{Source: "Kim", Text: "Great"}, {Text: "Second"}}},
			{ID: "places/b", Title: "B", URI: "https://maps.google.com/?cid=2"},
		},
		Details: map[string]places.Details{
			"places/a": {Address: "1 Main St", OpenNow: &open, Rating: 4.5, DistanceKilometers: &km},
		},
	})
	assert.False(t, v.ShowSuggestions)
	assert.True(t, v.ShowAttribution)
	assert.Equal(t, "Found 2 Locations", v.Heading)
	assert.Contains(t, string(v.Summary), "<em>these</em>")
	assert.Empty(t, v.Message)

	if assert.Len(t, v.Stores, 2) {
		a := v.Stores[0]
		assert.Equal(t, 1, a.Ordinal)
		assert.Equal(t, "Great", a.Review)
		assert.Equal(t, "Kim", a.ReviewSource)
		assert.Equal(t, "1 Main St", a.Address)
		assert.Equal(t, "Open now", a.Hours)
		assert.Equal(t, "4.5", a.Rating)
		assert.Equal(t, "2.3 km away", a.Distance)

		b := v.Stores[1]
		assert.Equal(t, 2, b.Ordinal)
		assert.Empty(t, b.Review)
		assert.Empty(t, b.Distance)
	}
}

func TestViewEmptyShowsAdvisory(t *testing.T) {
	v := buildView(context.Background(), "Hallmark", session.State{
		Phase:   session.PhaseEmpty,
		Summary: "Nothing.",
		Stores:  []search.Store{},
		Error:   session.NoResultsAdvisory,
	})
	assert.Equal(t, session.NoResultsAdvisory, v.Message)
	assert.Equal(t, "Found 0 Locations", v.Heading)
	assert.False(t, v.ShowAttribution)
}

func TestSummaryDropsRawHTML(t *testing.T) {
	html := string(renderMarkdown("Hello <script>alert(1)</script> **there**"))
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<strong>there</strong>")
}

func TestHeadingUsesPreferredLanguage(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Accept-Language", "de")
	ctx := query.ContextWith(context.Background(), r)

	stores := make([]search.Store, 1200)
	v := buildView(ctx, "Hallmark", session.State{Phase: session.PhaseSuccess, Summary: "Viele.", Stores: stores})
	assert.Equal(t, "Found 1.200 Locations", v.Heading)
}
