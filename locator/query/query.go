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

package query

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type queryContext struct {
	preferredLanguage string
	clientKey         string
}

type qckt int

var queryContextKey qckt

// ContextWith attaches the bits of the incoming request that later stages care about.
func ContextWith(ctx context.Context, r *http.Request) context.Context {
	qc := queryContext{
		preferredLanguage: preferredLanguage(r.Header.Get("Accept-Language")),
		clientKey:         clientKey(r),
	}
	return context.WithValue(ctx, queryContextKey, qc)
}

func preferredLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	if tags[0] == language.Und {
		return ""
	}
	return tags[0].String()
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func PreferredLanguageFromContext(ctx context.Context) string {
	qc, _ := ctx.Value(queryContextKey).(queryContext)
	return qc.preferredLanguage
}

func ClientKeyFromContext(ctx context.Context) string {
	qc, _ := ctx.Value(queryContextKey).(queryContext)
	return qc.clientKey
}
