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
	"fmt"
	"log"

	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/query"
	"github.com/maryambaig33/HallMark/locator/quota"
	"github.com/maryambaig33/HallMark/locator/session"
	"github.com/redis/go-redis/v9"
)

// DefaultQuery is what we search for as soon as we know where the user is.
func DefaultQuery(brand string) string {
	return fmt.Sprintf("Find %s stores near me", brand)
}

type ControllerConfig struct {
	Searcher quota.Searcher
	// Redis enables per-client daily quotas when set.
	Redis      *redis.Client
	DailyQuota int
	Enricher   session.Enricher
	Brand      string
}

// NewControllerFunc returns the function the session store uses to set up each new page session.
func NewControllerFunc(cfg ControllerConfig) session.NewControllerFunc {
	return func(ctx context.Context, locator geo.Locator) *session.Controller {
		var searcher session.Searcher = cfg.Searcher
		if cfg.Redis != nil {
			client := query.ClientKeyFromContext(ctx)
			if client == "" {
				log.Printf("No client key for new session, quota will be shared")
				client = "unknown"
			}
			searcher = quota.Limit(cfg.Searcher, quota.NewTracker(cfg.Redis, client, cfg.DailyQuota))
		}
		return session.NewController(searcher, locator, session.Options{
			DefaultQuery: DefaultQuery(cfg.Brand),
			Enricher:     cfg.Enricher,
		})
	}
}
