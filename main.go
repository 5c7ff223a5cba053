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

package main

import (
	"context"
	"log"
	"net/http"

	"github.com/honeycombio/beeline-go"
	"github.com/honeycombio/beeline-go/wrappers/hnynethttp"
	"github.com/maryambaig33/HallMark/locator"
	"github.com/maryambaig33/HallMark/locator/config"
	"github.com/maryambaig33/HallMark/locator/places"
	"github.com/maryambaig33/HallMark/locator/search"
	"github.com/maryambaig33/HallMark/locator/session"
	"github.com/maryambaig33/HallMark/locator/util/redact"
	"github.com/maryambaig33/HallMark/locator/util/storage"
)

func main() {
	cfg := config.GetConfig()
	beeline.Init(beeline.Config{
		WriteKey:    cfg.HoneycombKey,
		Dataset:     "rws",
		ServiceName: "store-locator",
		PresendHook: redact.CleanHoneycomb,
	})
	defer beeline.Close()
	http.DefaultTransport = hnynethttp.WrapRoundTripper(http.DefaultTransport)

	ctx := context.Background()
	searcher, err := search.NewGeminiClient(ctx)
	if err != nil {
		log.Fatalf("Creating search client failed: %v", err)
	}
	var enricher session.Enricher
	if cfg.GoogleMapsKey != "" {
		e, err := places.NewEnricher(cfg.GoogleMapsKey)
		if err != nil {
			log.Fatalf("Creating places client failed: %v", err)
		}
		enricher = e
	} else {
		log.Printf("No GOOGLE_MAPS_KEY, store details are disabled.")
	}
	rc := storage.GetRedis()

	sessions := session.NewStore(locator.NewControllerFunc(locator.ControllerConfig{
		Searcher:   searcher,
		Redis:      rc,
		DailyQuota: cfg.DailyQuotaCredits,
		Enricher:   enricher,
		Brand:      cfg.BrandName,
	}))
	go sessions.Run(ctx)

	service := locator.NewService(sessions, cfg.BrandName)
	log.Printf("Listening on %s.", cfg.ListenAddr)
	log.Fatal(service.ListenAndServe(cfg.ListenAddr))
}
