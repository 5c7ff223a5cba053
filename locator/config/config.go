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

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr        string
	GeminiKey         string
	GeminiModel       string
	GeminiBaseURL     string
	GoogleMapsKey     string
	RedisURL          string
	HoneycombKey      string
	BrandName         string
	DailyQuotaCredits int
}

var c Config

func GetConfig() *Config {
	return &c
}

func init() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only log if the file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			log.Printf("Error loading .env file: %v", err)
		}
	}

	c = Config{
		ListenAddr:        envOr("LISTEN_ADDR", "0.0.0.0:8080"),
		GeminiKey:         os.Getenv("GEMINI_KEY"),
		GeminiModel:       envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		GoogleMapsKey:     os.Getenv("GOOGLE_MAPS_KEY"),
		RedisURL:          os.Getenv("REDIS_URL"),
		HoneycombKey:      os.Getenv("HONEYCOMB_KEY"),
		BrandName:         envOr("BRAND_NAME", "Hallmark"),
		DailyQuotaCredits: 2_000_000,
	}
	if s := os.Getenv("DAILY_QUOTA_CREDITS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			log.Printf("Ignoring invalid DAILY_QUOTA_CREDITS %q: %v", s, err)
		} else {
			c.DailyQuotaCredits = n
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
