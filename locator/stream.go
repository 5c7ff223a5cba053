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
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/honeycombio/beeline-go"
	"github.com/maryambaig33/HallMark/locator/query"
	"nhooyr.io/websocket"
)

const writeTimeout = 10 * time.Second

// handleStream pushes a freshly rendered app fragment to the page every time its session changes.
func (s *Service) handleStream(rw http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		http.Error(rw, "no session", http.StatusBadRequest)
		return
	}
	sess, ok := s.sessions.Get(c.Value)
	if !ok {
		http.Error(rw, "unknown session", http.StatusNotFound)
		return
	}
	detach, ok := s.sessions.Attach(sess.ID)
	if !ok {
		http.Error(rw, "unknown session", http.StatusNotFound)
		return
	}
	defer detach()
	conn, err := websocket.Accept(rw, r, nil)
	if err != nil {
		log.Printf("Accepting websocket failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// We never expect anything from the page; this just notices when it goes away.
	ctx := conn.CloseRead(query.ContextWith(r.Context(), r))
	pushes := 0
	defer func() {
		beeline.AddField(ctx, "pushes", pushes)
	}()
	for {
		changed := sess.Controller.Changes()
		st := sess.Controller.State()
		var buf bytes.Buffer
		if err := pageTemplate.ExecuteTemplate(&buf, "app", buildView(ctx, s.brand, st)); err != nil {
			log.Printf("Rendering app fragment failed: %v", err)
			_ = conn.Close(websocket.StatusInternalError, "Rendering failed.")
			return
		}
		if err := s.push(ctx, conn, buf.Bytes()); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("Pushing update failed: %v", err)
			}
			return
		}
		pushes++
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

func (s *Service) push(ctx context.Context, conn *websocket.Conn, fragment []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, fragment)
}
