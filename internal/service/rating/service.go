package rating

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	recipemodel "github.com/hsuanlin/recipetalk/backend/internal/model/recipe"
	"github.com/hsuanlin/recipetalk/backend/internal/model/user"
)

var (
	// ErrRecipeNotFound reports an unknown recipe id.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrCommentNotFound reports an unknown or non-top-level parent comment.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrInvalidRating rejects ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrEmptyComment rejects a comment with neither content nor rating.
	ErrEmptyComment = errors.New("comment content is empty")
	// ErrReplyWithRating rejects a rating on the reply path. Ratings attach
	// to top-level comments only.
	ErrReplyWithRating = errors.New("replies cannot carry a rating")
)

// Service maintains each recipe's comment thread and its denormalized rating
// summary. The summary is the one shared resource in the whole design that
// needs transactional discipline: rated comments fold into it through an
// optimistic read-modify-write that retries on version conflict, so
// concurrent raters never lose an update.
type Service struct {
	mu   sync.RWMutex
	docs map[string]*recipeDoc
}

type recipeDoc struct {
	summary  recipemodel.RatingSummary
	version  uint64
	comments []storedComment
}

// storedComment is the flat persisted shape. The top-level/replies partition
// callers see is derived from ParentID at read time, never stored.
type storedComment struct {
	ID           string
	UserID       string
	UserName     string
	UserPhotoURL string
	Content      string
	Rating       *int
	CreatedAt    time.Time
	ParentID     string
}

// NewService bootstraps the in-memory aggregator.
func NewService() *Service {
	return &Service{docs: make(map[string]*recipeDoc)}
}

// Register creates an empty document for the recipe id if none exists yet.
func (s *Service) Register(_ context.Context, recipeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[recipeID]; !ok {
		s.docs[recipeID] = &recipeDoc{}
	}
}

// AddComment appends a top-level comment. A rating, when present, must be
// 1..5 and is folded into the recipe's summary transactionally. Content may
// be empty only when a rating is supplied.
func (s *Service) AddComment(ctx context.Context, recipeID string, author user.User, content string, ratingVal *int) (recipemodel.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" && ratingVal == nil {
		return recipemodel.Comment{}, ErrEmptyComment
	}
	if ratingVal != nil && (*ratingVal < 1 || *ratingVal > 5) {
		return recipemodel.Comment{}, ErrInvalidRating
	}

	stored := storedComment{
		ID:           uuid.NewString(),
		UserID:       author.ID,
		UserName:     author.Name(),
		UserPhotoURL: author.PhotoURL,
		Content:      content,
		Rating:       copyRating(ratingVal),
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	doc, ok := s.docs[recipeID]
	if !ok {
		s.mu.Unlock()
		return recipemodel.Comment{}, ErrRecipeNotFound
	}
	doc.comments = append(doc.comments, stored)
	s.mu.Unlock()

	if ratingVal != nil {
		if err := s.foldRating(ctx, recipeID, *ratingVal); err != nil {
			return recipemodel.Comment{}, err
		}
	}

	return recipemodel.Comment{
		ID:           stored.ID,
		RecipeID:     recipeID,
		UserID:       stored.UserID,
		UserName:     stored.UserName,
		UserPhotoURL: stored.UserPhotoURL,
		Content:      stored.Content,
		Rating:       copyRating(stored.Rating),
		CreatedAt:    stored.CreatedAt,
	}, nil
}

// AddReply appends a reply under an existing top-level comment. Replies
// carry no rating and cannot themselves be replied to; the Reply type has no
// field for either, so deeper nesting is unrepresentable. The recipe's
// summary is untouched.
func (s *Service) AddReply(_ context.Context, recipeID, parentID string, author user.User, content string) (recipemodel.Reply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return recipemodel.Reply{}, ErrEmptyComment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[recipeID]
	if !ok {
		return recipemodel.Reply{}, ErrRecipeNotFound
	}
	if !doc.hasTopLevel(parentID) {
		return recipemodel.Reply{}, ErrCommentNotFound
	}

	stored := storedComment{
		ID:           uuid.NewString(),
		UserID:       author.ID,
		UserName:     author.Name(),
		UserPhotoURL: author.PhotoURL,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
		ParentID:     parentID,
	}
	doc.comments = append(doc.comments, stored)

	return recipemodel.Reply{
		ID:           stored.ID,
		RecipeID:     recipeID,
		UserID:       stored.UserID,
		UserName:     stored.UserName,
		UserPhotoURL: stored.UserPhotoURL,
		Content:      stored.Content,
		CreatedAt:    stored.CreatedAt,
	}, nil
}

// Threaded returns the comment tree: top-level comments in creation order,
// each with its replies grouped underneath. The grouping is derived from the
// flat log on every call.
func (s *Service) Threaded(_ context.Context, recipeID string) ([]recipemodel.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[recipeID]
	if !ok {
		return nil, ErrRecipeNotFound
	}

	replies := make(map[string][]recipemodel.Reply)
	for _, c := range doc.comments {
		if c.ParentID == "" {
			continue
		}
		replies[c.ParentID] = append(replies[c.ParentID], recipemodel.Reply{
			ID:           c.ID,
			RecipeID:     recipeID,
			UserID:       c.UserID,
			UserName:     c.UserName,
			UserPhotoURL: c.UserPhotoURL,
			Content:      c.Content,
			CreatedAt:    c.CreatedAt,
		})
	}

	thread := make([]recipemodel.Comment, 0, len(doc.comments))
	for _, c := range doc.comments {
		if c.ParentID != "" {
			continue
		}
		thread = append(thread, recipemodel.Comment{
			ID:           c.ID,
			RecipeID:     recipeID,
			UserID:       c.UserID,
			UserName:     c.UserName,
			UserPhotoURL: c.UserPhotoURL,
			Content:      c.Content,
			Rating:       copyRating(c.Rating),
			CreatedAt:    c.CreatedAt,
			Replies:      replies[c.ID],
		})
	}
	return thread, nil
}

// Summary returns the recipe's current rating aggregate.
func (s *Service) Summary(_ context.Context, recipeID string) (recipemodel.RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[recipeID]
	if !ok {
		return recipemodel.RatingSummary{}, ErrRecipeNotFound
	}
	return doc.summary, nil
}

// foldRating runs the read-modify-write on the summary counters. The version
// check makes the write conditional; a concurrent fold in between forces a
// re-read, never a lost update.
func (s *Service) foldRating(_ context.Context, recipeID string, ratingVal int) error {
	for {
		s.mu.RLock()
		doc, ok := s.docs[recipeID]
		if !ok {
			s.mu.RUnlock()
			return ErrRecipeNotFound
		}
		summary := doc.summary
		version := doc.version
		s.mu.RUnlock()

		total := summary.TotalRatings + 1
		average := (summary.AverageRating*float64(summary.TotalRatings) + float64(ratingVal)) / float64(total)
		next := recipemodel.RatingSummary{AverageRating: average, TotalRatings: total}

		s.mu.Lock()
		doc, ok = s.docs[recipeID]
		if !ok {
			s.mu.Unlock()
			return ErrRecipeNotFound
		}
		if doc.version == version {
			doc.summary = next
			doc.version++
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()
	}
}

func (d *recipeDoc) hasTopLevel(id string) bool {
	for _, c := range d.comments {
		if c.ID == id {
			return c.ParentID == ""
		}
	}
	return false
}

func copyRating(r *int) *int {
	if r == nil {
		return nil
	}
	val := *r
	return &val
}
