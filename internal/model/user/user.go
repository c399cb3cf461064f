package user

// User mirrors the profile document the identity provider maintains for
// each account.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoURL,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// Name returns the display name with the anonymous fallback used everywhere
// a message or comment is attributed.
func (u User) Name() string {
	if u.DisplayName == "" {
		return "anonymous"
	}
	return u.DisplayName
}
