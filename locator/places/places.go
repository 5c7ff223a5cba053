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

package places

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/honeycombio/beeline-go"
	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/query"
	"github.com/maryambaig33/HallMark/locator/search"
	"github.com/umahmood/haversine"
	gmaps "googlemaps.github.io/maps"
)

// MaxLookups caps how many stores from one result get details fetched.
const MaxLookups = 10

// Details are extras we show next to a store. They never replace what the model told us.
type Details struct {
	Address            string   `json:"address,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	OpenNow            *bool    `json:"open_now,omitempty"`
	Rating             float32  `json:"rating,omitempty"`
	DistanceKilometers *float64 `json:"distance_km,omitempty"`
	DistanceMiles      *float64 `json:"distance_miles,omitempty"`
}

type Enricher struct {
	client *gmaps.Client
}

func NewEnricher(apiKey string, opts ...gmaps.ClientOption) (*Enricher, error) {
	c, err := gmaps.NewClient(append([]gmaps.ClientOption{gmaps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("error creating maps client: %w", err)
	}
	return &Enricher{client: c}, nil
}

// Enrich looks up each store's place and returns whatever it could find, keyed by store ID.
// Stores that fail to resolve are left out.
func (e *Enricher) Enrich(ctx context.Context, stores []search.Store, from *geo.Coordinates) map[string]Details {
	ctx, span := beeline.StartSpan(ctx, "enrich_stores")
	defer span.Send()
	if len(stores) > MaxLookups {
		stores = stores[:MaxLookups]
	}
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		details = make(map[string]Details)
	)
	for _, s := range stores {
		placeID := placeIDFromResource(s.ID)
		if placeID == "" {
			continue
		}
		mu.Lock()
		_, seen := details[s.ID]
		details[s.ID] = Details{}
		mu.Unlock()
		if seen {
			continue
		}
		wg.Add(1)
		go func(id, placeID string) {
			defer wg.Done()
			d, err := e.lookup(ctx, placeID, from)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Failed to look up place %s: %v", placeID, err)
				delete(details, id)
				return
			}
			details[id] = d
		}(s.ID, placeID)
	}
	wg.Wait()
	span.AddField("enriched", len(details))
	return details
}

func (e *Enricher) lookup(ctx context.Context, placeID string, from *geo.Coordinates) (Details, error) {
	ctx, span := beeline.StartSpan(ctx, "place_details")
	defer span.Send()
	result, err := e.client.PlaceDetails(ctx, &gmaps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: query.PreferredLanguageFromContext(ctx),
		Fields: []gmaps.PlaceDetailsFieldMask{
			gmaps.PlaceDetailsFieldMaskFormattedAddress,
			gmaps.PlaceDetailsFieldMaskFormattedPhoneNumber,
			gmaps.PlaceDetailsFieldMaskGeometryLocation,
			gmaps.PlaceDetailsFieldMaskOpeningHours,
			gmaps.PlaceDetailsFieldMaskRatings,
		},
	})
	if err != nil {
		span.AddField("error", err)
		return Details{}, err
	}
	d := Details{
		Address: result.FormattedAddress,
		Phone:   result.FormattedPhoneNumber,
		Rating:  result.Rating,
	}
	if result.OpeningHours != nil {
		d.OpenNow = result.OpeningHours.OpenNow
	}
	loc := result.Geometry.Location
	if from != nil && (loc.Lat != 0 || loc.Lng != 0) {
		mi, km := haversine.Distance(
			haversine.Coord{Lat: from.Latitude, Lon: from.Longitude},
			haversine.Coord{Lat: loc.Lat, Lon: loc.Lng},
		)
		d.DistanceMiles = &mi
		d.DistanceKilometers = &km
	}
	return d, nil
}

// Grounding chunks name places as "places/<id>"; the Places API wants the bare ID.
func placeIDFromResource(name string) string {
	return strings.TrimPrefix(name, "places/")
}
