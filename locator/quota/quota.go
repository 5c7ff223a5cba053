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

package quota

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/honeycombio/beeline-go"
	"github.com/maryambaig33/HallMark/locator/geo"
	"github.com/maryambaig33/HallMark/locator/search"
	"github.com/redis/go-redis/v9"
)

const InputTokenCredits = 4
const OutputTokenCredits = 16

// Maps grounding is billed per request on top of tokens.
const SearchCredits = 25_000

var ErrQuotaExceeded = errors.New("daily search quota exceeded")

// ExceededMessage is what we tell a user who has run out of searches for the day.
const ExceededMessage = "You've reached today's search limit. Please try again tomorrow."

type Tracker struct {
	redis  *redis.Client
	client string
	limit  int
	now    func() time.Time
}

func NewTracker(redisClient *redis.Client, client string, dailyLimit int) *Tracker {
	return &Tracker{
		redis:  redisClient,
		client: client,
		limit:  dailyLimit,
		now:    time.Now,
	}
}

func (q *Tracker) ChargeInputQuota(ctx context.Context, tokenCount int) (credits int, err error) {
	return q.chargeCredits(ctx, tokenCount*InputTokenCredits)
}

func (q *Tracker) ChargeOutputQuota(ctx context.Context, tokenCount int) (credits int, err error) {
	return q.chargeCredits(ctx, tokenCount*OutputTokenCredits)
}

func (q *Tracker) GetQuota(ctx context.Context) (used, remaining int, err error) {
	ctx, span := beeline.StartSpan(ctx, "get_quota")
	defer span.Send()
	result := q.redis.Get(ctx, q.key())
	if result.Err() == redis.Nil {
		return 0, q.limit, nil
	}
	if result.Err() != nil {
		span.AddField("error", result.Err())
		return 0, 0, result.Err()
	}
	used, err = result.Int()
	if err != nil {
		return 0, 0, err
	}
	return used, q.limit - used, nil
}

func (q *Tracker) key() string {
	now := q.now()
	return fmt.Sprintf("quota:%02d%02d%02d:%s", now.Year()%100, now.Month(), now.Day(), q.client)
}

func (q *Tracker) chargeCredits(ctx context.Context, credits int) (int, error) {
	ctx, span := beeline.StartSpan(ctx, "charge_credits")
	defer span.Send()
	key := q.key()
	total, err := q.redis.IncrBy(ctx, key, int64(credits)).Result()
	if err != nil {
		span.AddField("error", err)
		return 0, err
	}
	if int(total) == credits {
		if err := q.redis.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			span.AddField("error", err)
			return 0, err
		}
	}
	return int(total), nil
}

func (q *Tracker) ChargeCredits(ctx context.Context, credits int) error {
	used, err := q.chargeCredits(ctx, credits)
	log.Printf("Charging %d credits to client %s. Total used: %d\n", credits, q.client, used)
	return err
}

// Charge bills one completed search.
func (q *Tracker) Charge(ctx context.Context, usage search.Usage) error {
	if _, err := q.ChargeInputQuota(ctx, usage.PromptTokens); err != nil {
		return fmt.Errorf("charge input quota failed: %w", err)
	}
	if _, err := q.ChargeOutputQuota(ctx, usage.CandidateTokens); err != nil {
		return fmt.Errorf("charge output quota failed: %w", err)
	}
	return q.ChargeCredits(ctx, SearchCredits)
}

type Searcher interface {
	Search(ctx context.Context, query string, loc *geo.Coordinates) (*search.Result, error)
}

type limitedSearcher struct {
	next    Searcher
	tracker *Tracker
}

// Limit refuses searches once the tracker has run out of credits, and bills the ones that go through.
// Quota lookups that fail are logged and the search is allowed.
func Limit(next Searcher, tracker *Tracker) Searcher {
	return &limitedSearcher{next: next, tracker: tracker}
}

func (l *limitedSearcher) Search(ctx context.Context, query string, loc *geo.Coordinates) (*search.Result, error) {
	_, remaining, err := l.tracker.GetQuota(ctx)
	if err != nil {
		log.Printf("get quota failed: %v\n", err)
	} else if remaining < 1 {
		log.Printf("quota exceeded for client %s\n", l.tracker.client)
		return nil, ErrQuotaExceeded
	}
	result, err := l.next.Search(ctx, query, loc)
	if err != nil {
		return nil, err
	}
	if err := l.tracker.Charge(ctx, result.Usage); err != nil {
		log.Printf("charging search failed: %v\n", err)
	}
	return result, nil
}
