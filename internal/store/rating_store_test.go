package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
)

func TestRatingStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO trade_ratings") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 7 {
				t.Fatalf("expected 7 args, got %d", len(args))
			}
			if args[1] != "prop-1" || args[2] != "user-1" || args[3] != "user-2" || args[4] != 5 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewRatingStore(stubDB{})
	rating := models.TradeRating{
		ID:         "rating-1",
		ProposalID: "prop-1",
		RaterID:    "user-1",
		RateeID:    "user-2",
		Score:      5,
	}
	if err := store.Create(ctx, execer, rating); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRatingStoreExistsForRater(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE proposal_id = $1 AND rater_id = $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != "prop-1" || args[1] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*bool) = true
			return nil
		},
	}
	store := NewRatingStore(stubDB{})
	exists, err := store.ExistsForRater(ctx, getter, "prop-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
}

func TestRatingStoreSumScoresFor(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE ratee_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			agg := dest.(*struct {
				Total int64 `db:"total"`
				Count int64 `db:"count"`
			})
			agg.Total = 9
			agg.Count = 2
			return nil
		},
	}
	store := NewRatingStore(stubDB{})
	total, count, err := store.SumScoresFor(ctx, getter, "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 9 || count != 2 {
		t.Fatalf("unexpected aggregate: total=%d count=%d", total, count)
	}
}
