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
	"strings"

	"google.golang.org/genai"
)

const PlaceholderSummary = "I couldn't find any specific store details right now."

type Review struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

type Store struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	URI     string   `json:"uri"`
	Reviews []Review `json:"reviews,omitempty"`
}

type Usage struct {
	PromptTokens    int `json:"prompt_tokens"`
	CandidateTokens int `json:"candidate_tokens"`
}

type Result struct {
	Summary string  `json:"summary"`
	Stores  []Store `json:"stores"`
	Usage   Usage   `json:"usage"`
}

// ParseResponse pulls the summary and the map-grounded places out of a model response.
// Stores keep the order the model returned them in.
func ParseResponse(resp *genai.GenerateContentResponse) *Result {
	result := &Result{
		Summary: PlaceholderSummary,
		Stores:  []Store{},
	}
	if resp == nil {
		return result
	}
	if text := resp.Text(); strings.TrimSpace(text) != "" {
		result.Summary = text
	}
	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			PromptTokens:    int(resp.UsageMetadata.PromptTokenCount),
			CandidateTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].GroundingMetadata == nil {
		return result
	}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		// Web citations and the like have no place attached; we only want places.
		if chunk == nil || chunk.Maps == nil {
			continue
		}
		result.Stores = append(result.Stores, storeFromChunk(chunk.Maps))
	}
	return result
}

func storeFromChunk(m *genai.GroundingChunkMaps) Store {
	s := Store{
		ID:    m.PlaceID,
		Title: m.Title,
		URI:   m.URI,
	}
	if m.PlaceAnswerSources == nil {
		return s
	}
	for _, snippet := range m.PlaceAnswerSources.ReviewSnippets {
		if snippet == nil {
			continue
		}
		text := snippet.Review
		if text == "" {
			text = snippet.Title
		}
		if text == "" {
			continue
		}
		source := "Google Maps"
		if snippet.AuthorAttribution != nil && snippet.AuthorAttribution.DisplayName != "" {
			source = snippet.AuthorAttribution.DisplayName
		}
		s.Reviews = append(s.Reviews, Review{Source: source, Text: text})
	}
	return s
}
