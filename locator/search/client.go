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
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/honeycombio/beeline-go"
	"github.com/maryambaig33/HallMark/locator/config"
	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/query"
	"google.golang.org/genai"
)

var ErrEmptyQuery = errors.New("search query is empty")

// SearchFailedError hides whatever went wrong talking to the model behind one user-facing message.
type SearchFailedError struct {
	Err error
}

func (e *SearchFailedError) Error() string {
	return "Failed to search for stores. Please try again."
}

func (e *SearchFailedError) Unwrap() error {
	return e.Err
}

// Generator is the subset of genai.Models we use.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models Generator
	model  string
	brand  string
}

func NewClient(models Generator, model, brand string) *Client {
	return &Client{
		models: models,
		model:  model,
		brand:  brand,
	}
}

// NewGeminiClient builds a Client that talks to the Gemini API using the service configuration.
func NewGeminiClient(ctx context.Context) (*Client, error) {
	c := config.GetConfig()
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.GeminiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.GeminiBaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return NewClient(gc.Models, c.GeminiModel, c.BrandName), nil
}

func (c *Client) BuildRequest(ctx context.Context, q string, loc *geo.Coordinates) Request {
	return NewRequest(c.model, q).
		WithLocation(loc).
		WithLanguage(query.PreferredLanguageFromContext(ctx)).
		WithSystemInstruction(systemInstruction(c.brand))
}

// Search makes exactly one call to the model. There is no retry and no caching.
func (c *Client) Search(ctx context.Context, q string, loc *geo.Coordinates) (*Result, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}
	ctx, span := beeline.StartSpan(ctx, "search_stores")
	defer span.Send()
	span.AddField("has_location", loc != nil)

	req := c.BuildRequest(ctx, q, loc)
	resp, err := c.models.GenerateContent(ctx, req.Model, req.Contents(), req.Config())
	if err != nil {
		span.AddField("error", err)
		log.Printf("Error searching stores: %v", err)
		return nil, &SearchFailedError{Err: err}
	}
	result := ParseResponse(resp)
	span.AddField("store_count", len(result.Stores))
	span.AddField("prompt_tokens", result.Usage.PromptTokens)
	span.AddField("candidate_tokens", result.Usage.CandidateTokens)
	return result, nil
}
