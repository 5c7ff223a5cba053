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

package storage

import (
	"log"
	"sync"

	"github.com/maryambaig33/HallMark/locator/config"
	"github.com/redis/go-redis/v9"
)

var (
	redisOnce   sync.Once
	redisClient *redis.Client
)

// GetRedis returns the shared Redis client, or nil when REDIS_URL isn't set.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		u := config.GetConfig().RedisURL
		if u == "" {
			log.Println("REDIS_URL not set; quotas are disabled.")
			return
		}
		opts, err := redis.ParseURL(u)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	})
	return redisClient
}
