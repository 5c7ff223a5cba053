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

package redact

import (
	"net/url"
	"regexp"

	"golang.org/x/exp/slices"
)

var sensitiveQueryParams = []string{
	"q",          // the user's search
	"lon", "lat", // user's location as sent to us
	"error",      // why the browser couldn't locate the user
	"key",        // our Gemini and Maps API keys
	"placeid",    // the store a Places lookup was for
	"location",   // location bias sent to Maps
}

var placesPathRegex = regexp.MustCompile(`^/maps/api/place/details/.+$`)

func redactQuery(query string) string {
	values, err := url.ParseQuery(query)
	if err != nil {
		return "[parse error redacted for safety]"
	}
	newValues := url.Values{}
	for k, v := range values {
		if slices.Contains(sensitiveQueryParams, k) {
			newValues[k] = []string{"redacted"}
		} else {
			newValues[k] = v
		}
	}
	return newValues.Encode()
}

func cleanPath(path string) string {
	if placesPathRegex.MatchString(path) {
		return "/maps/api/place/details/[format]"
	}
	return path
}

func cleanUrl(u string) string {
	parsedUrl, err := url.Parse(u)
	if err != nil {
		return "[parse error redacted for safety]"
	}
	parsedUrl.Path = cleanPath(parsedUrl.Path)
	parsedUrl.RawQuery = redactQuery(parsedUrl.RawQuery)
	return parsedUrl.String()
}

// CleanHoneycomb strips the user's searches and whereabouts out of events before they leave the process.
func CleanHoneycomb(data map[string]interface{}) {
	if query, ok := data["request.query"]; ok {
		if queryStr, ok := query.(string); ok {
			data["request.query"] = redactQuery(queryStr)
		}
	}
	if path, ok := data["request.path"]; ok {
		if pathStr, ok := path.(string); ok {
			data["request.path"] = cleanPath(pathStr)
		}
	}
	if u, ok := data["request.url"]; ok {
		if urlStr, ok := u.(string); ok {
			data["request.url"] = cleanUrl(urlStr)
		}
	}
	// Cookies identify the session.
	delete(data, "request.header.cookie")
}
