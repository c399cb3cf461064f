package recipe

import "time"

// Reply is a second-level comment. It deliberately carries no rating and no
// parent reference of its own, so nesting deeper than one level cannot be
// expressed.
type Reply struct {
	ID           string    `json:"id"`
	RecipeID     string    `json:"recipeId"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	UserPhotoURL string    `json:"userPhotoURL,omitempty"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Comment is a top-level recipe comment. Rating is optional; when present it
// is an integer 1..5 and has been folded into the recipe's rating summary.
type Comment struct {
	ID           string    `json:"id"`
	RecipeID     string    `json:"recipeId"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	UserPhotoURL string    `json:"userPhotoURL,omitempty"`
	Content      string    `json:"content"`
	Rating       *int      `json:"rating,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Replies      []Reply   `json:"replies,omitempty"`
}

// RatingSummary is the denormalized aggregate kept on each recipe document.
// Invariant: AverageRating*TotalRatings equals the sum of all ratings folded
// in, within floating error.
type RatingSummary struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}
