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
	"context"
	"fmt"
	"html/template"
	"log"

	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/query"
	"github.com/maryambaig33/HallMark/locator/session"
	"github.com/yuin/goldmark"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const searchingHeading = "Searching..."

type storeView struct {
	Ordinal      int
	Title        string
	URI          string
	Review       string
	ReviewSource string
	Address      string
	Phone        string
	Hours        string
	Rating       string
	Distance     string
}

type pageView struct {
	Brand           string
	Query           string
	Version         uint64
	Summary         template.HTML
	Heading         string
	Message         string
	Stores          []storeView
	Suggestions     []string
	Skeletons       []int
	Searching       bool
	ShowSuggestions bool
	ShowResults     bool
	ShowAttribution bool
	LocateDisabled  bool
	LocationStatus  string
	LocationLabel   string
	// Polling is true while something is still going on that the page has to wait for.
	Polling bool
}

func suggestionsFor(brand string) []string {
	return []string{
		"Stores open now near me",
		"Where can I find Keepsake Ornaments?",
		fmt.Sprintf("%s Gold Crown stores nearby", brand),
		"Stores with the best greeting card selection",
	}
}

func printerFor(ctx context.Context) *message.Printer {
	tag := language.English
	if lang := query.PreferredLanguageFromContext(ctx); lang != "" {
		if t, err := language.Parse(lang); err == nil {
			tag = t
		}
	}
	return message.NewPrinter(tag)
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	// goldmark drops raw HTML unless told otherwise, so the output is safe to embed.
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		log.Printf("Rendering summary failed: %v", err)
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func locationLabel(status geo.Status) string {
	switch status {
	case geo.StatusLocating:
		return "Locating..."
	case geo.StatusLocated:
		return "Location Found"
	case geo.StatusError:
		return "Location Unavailable"
	}
	return "Near Me"
}

func buildView(ctx context.Context, brand string, st session.State) pageView {
	p := printerFor(ctx)
	v := pageView{
		Brand:           brand,
		Query:           st.Query,
		Version:         st.Version,
		Searching:       st.Searching(),
		ShowSuggestions: st.Summary == "" && !st.Searching(),
		LocateDisabled:  st.Location == geo.StatusLocating || st.Searching(),
		LocationStatus:  string(st.Location),
		LocationLabel:   locationLabel(st.Location),
		Polling:         st.Searching() || st.Location == geo.StatusLocating,
	}
	if v.ShowSuggestions {
		v.Suggestions = suggestionsFor(brand)
	}
	// A failure leaves no summary behind, but the message still has to be seen.
	v.ShowResults = st.Summary != "" || st.Searching() || st.Error != ""
	if st.Searching() {
		v.Heading = searchingHeading
		v.Skeletons = []int{1, 2, 3, 4}
		return v
	}
	if st.Summary != "" {
		v.Summary = renderMarkdown(st.Summary)
	}
	v.Heading = p.Sprintf("Found %d Locations", len(st.Stores))
	v.ShowAttribution = len(st.Stores) > 0
	if len(st.Stores) == 0 {
		v.Message = st.Error
	}
	for i, s := range st.Stores {
		sv := storeView{
			Ordinal: i + 1,
			Title:   s.Title,
			URI:     s.URI,
		}
		if len(s.Reviews) > 0 {
			sv.Review = s.Reviews[0].Text
			sv.ReviewSource = s.Reviews[0].Source
		}
		if d, ok := st.Details[s.ID]; ok {
			sv.Address = d.Address
			sv.Phone = d.Phone
			if d.OpenNow != nil {
				sv.Hours = "Closed now"
				if *d.OpenNow {
					sv.Hours = "Open now"
				}
			}
			if d.Rating > 0 {
				sv.Rating = p.Sprintf("%.1f", d.Rating)
			}
			if d.DistanceKilometers != nil {
				sv.Distance = p.Sprintf("%.1f km away", *d.DistanceKilometers)
			}
		}
		v.Stores = append(v.Stores, sv)
	}
	return v
}
