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

package search

import (
	"github.com/maryambaig33/HallMark/locator/geo"
	"google.golang.org/genai"
)

// Request describes one call to the model. It is a plain value: the With* methods return modified copies.
type Request struct {
	Model             string
	Query             string
	Location          *geo.Coordinates
	LanguageCode      string
	SystemInstruction string
}

func NewRequest(model, query string) Request {
	return Request{Model: model, Query: query}
}

func (r Request) WithLocation(loc *geo.Coordinates) Request {
	if loc != nil {
		l := *loc
		r.Location = &l
	} else {
		r.Location = nil
	}
	return r
}

func (r Request) WithLanguage(code string) Request {
	r.LanguageCode = code
	return r
}

func (r Request) WithSystemInstruction(s string) Request {
	r.SystemInstruction = s
	return r
}

func (r Request) Contents() []*genai.Content {
	return genai.Text(r.Query)
}

func (r Request) Config() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
	}
	if r.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: r.SystemInstruction}}}
	}
	if r.Location == nil && r.LanguageCode == "" {
		return cfg
	}
	rc := &genai.RetrievalConfig{LanguageCode: r.LanguageCode}
	if r.Location != nil {
		rc.LatLng = &genai.LatLng{
			Latitude:  genai.Ptr(r.Location.Latitude),
			Longitude: genai.Ptr(r.Location.Longitude),
		}
	}
	cfg.ToolConfig = &genai.ToolConfig{RetrievalConfig: rc}
	return cfg
}
