package rating_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
	"github.com/hsuanlin/recipetalk/backend/internal/service/rating"
)

func author(id string) user.User {
	return user.User{ID: id, Email: id + "@example.com", DisplayName: id, EmailVerified: true}
}

func newService(t *testing.T, recipeID string) *rating.Service {
	t.Helper()
	svc := rating.NewService()
	svc.Register(context.Background(), recipeID)
	return svc
}

func intPtr(v int) *int { return &v }

func TestAddCommentUnknownRecipe(t *testing.T) {
	svc := rating.NewService()

	_, err := svc.AddComment(context.Background(), "missing", author("alice"), "great", nil)
	if !errors.Is(err, rating.ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}

func TestAddCommentValidation(t *testing.T) {
	svc := newService(t, "r1")
	ctx := context.Background()

	if _, err := svc.AddComment(ctx, "r1", author("alice"), "   ", nil); !errors.Is(err, rating.ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}
	if _, err := svc.AddComment(ctx, "r1", author("alice"), "meh", intPtr(0)); !errors.Is(err, rating.ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating for 0, got %v", err)
	}
	if _, err := svc.AddComment(ctx, "r1", author("alice"), "meh", intPtr(6)); !errors.Is(err, rating.ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating for 6, got %v", err)
	}
	// A bare rating with no text is a valid review.
	if _, err := svc.AddComment(ctx, "r1", author("alice"), "", intPtr(4)); err != nil {
		t.Fatalf("rating-only comment err: %v", err)
	}
}

func TestPlainCommentLeavesSummaryUntouched(t *testing.T) {
	svc := newService(t, "r1")
	ctx := context.Background()

	if _, err := svc.AddComment(ctx, "r1", author("alice"), "looks tasty", nil); err != nil {
		t.Fatalf("AddComment err: %v", err)
	}

	summary, err := svc.Summary(ctx, "r1")
	if err != nil {
		t.Fatalf("Summary err: %v", err)
	}
	if summary.TotalRatings != 0 || summary.AverageRating != 0 {
		t.Fatalf("unrated comment changed summary: %+v", summary)
	}
}

func TestRatedCommentFoldsIntoSummary(t *testing.T) {
	svc := newService(t, "r1")
	ctx := context.Background()

	for _, r := range []int{5, 3} {
		if _, err := svc.AddComment(ctx, "r1", author("alice"), "review", intPtr(r)); err != nil {
			t.Fatalf("AddComment err: %v", err)
		}
	}

	summary, err := svc.Summary(ctx, "r1")
	if err != nil {
		t.Fatalf("Summary err: %v", err)
	}
	if summary.TotalRatings != 2 {
		t.Fatalf("expected 2 ratings, got %d", summary.TotalRatings)
	}
	if math.Abs(summary.AverageRating-4.0) > 1e-9 {
		t.Fatalf("expected average 4.0, got %f", summary.AverageRating)
	}
}

func TestConcurrentRatersNeverLoseUpdates(t *testing.T) {
	svc := newService(t, "r1")
	ctx := context.Background()

	const n = 60
	sum := 0
	ratings := make([]int, n)
	for i := range ratings {
		ratings[i] = i%5 + 1
		sum += ratings[i]
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			if _, err := svc.AddComment(ctx, "r1", author("rater"), "review", intPtr(r)); err != nil {
				t.Errorf("AddComment err: %v", err)
			}
		}(ratings[i])
	}
	wg.Wait()

	summary, err := svc.Summary(ctx, "r1")
	if err != nil {
		t.Fatalf("Summary err: %v", err)
	}
	if summary.TotalRatings != n {
		t.Fatalf("lost updates: expected %d ratings, got %d", n, summary.TotalRatings)
	}
	want := float64(sum) / float64(n)
	if math.Abs(summary.AverageRating-want) > 1e-9 {
		t.Fatalf("expected average %f, got %f", want, summary.AverageRating)
	}
	// averageRating*totalRatings must equal the observed sum.
	if math.Abs(summary.AverageRating*float64(summary.TotalRatings)-float64(sum)) > 1e-6 {
		t.Fatalf("summary invariant violated: %f * %d != %d", summary.AverageRating, summary.TotalRatings, sum)
	}
}

func TestReplyNeverChangesSummary(t *testing.T) {
	svc := newService(t, "r1")
	ctx := context.Background()

	parent, err := svc.AddComment(ctx, "r1", author("alice"), "review", intPtr(5))
	if err != nil {
		t.Fatalf("AddComment err: %v", err)
	}
	before, _ := svc.Summary(ctx, "r1")

	if _, err := svc.AddReply(ctx, "r1", parent.ID, author("bob"), "agreed!"); err != nil {
		t.Fatalf("AddReply err: %v", err)
	}

	after, _ := svc.Summary(ctx, "r1")
	if before != after {
		t.Fatalf("reply changed summary: %+v -> %+v", before, after)
	}
}

func TestReplyToUnknownParent(t *testing.T) {
	svc := newService(t, "r1")

	_, err := svc.AddReply(context.Background(), "r1", "missing", author("bob"), "hello?")
	if !errors.Is(err, rating.ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestReplyToReplyImpossible(t *testing.T) {
	svc := newService(t, "r1")
	ctx := context.Background()

	parent, err := svc.AddComment(ctx, "r1", author("alice"), "review", nil)
	if err != nil {
		t.Fatalf("AddComment err: %v", err)
	}
	reply, err := svc.AddReply(ctx, "r1", parent.ID, author("bob"), "agreed")
	if err != nil {
		t.Fatalf("AddReply err: %v", err)
	}

	// A reply id is not a valid parent; nesting stops at one level.
	if _, err := svc.AddReply(ctx, "r1", reply.ID, author("carol"), "me too"); !errors.Is(err, rating.ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound for reply-to-reply, got %v", err)
	}
}

func TestThreadedPartition(t *testing.T) {
	svc := newService(t, "r1")
	ctx := context.Background()

	first, err := svc.AddComment(ctx, "r1", author("alice"), "first", intPtr(4))
	if err != nil {
		t.Fatalf("AddComment err: %v", err)
	}
	second, err := svc.AddComment(ctx, "r1", author("bob"), "second", nil)
	if err != nil {
		t.Fatalf("AddComment err: %v", err)
	}
	if _, err := svc.AddReply(ctx, "r1", first.ID, author("carol"), "re: first"); err != nil {
		t.Fatalf("AddReply err: %v", err)
	}

	thread, err := svc.Threaded(ctx, "r1")
	if err != nil {
		t.Fatalf("Threaded err: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("expected 2 top-level comments, got %d", len(thread))
	}
	if thread[0].ID != first.ID || thread[1].ID != second.ID {
		t.Fatal("top-level comments out of creation order")
	}
	if len(thread[0].Replies) != 1 || thread[0].Replies[0].Content != "re: first" {
		t.Fatalf("replies not grouped under parent: %+v", thread[0].Replies)
	}
	if len(thread[1].Replies) != 0 {
		t.Fatal("unexpected replies on second comment")
	}
}
