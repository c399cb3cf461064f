package user

import "strings"

// Store exposes profile lookups for the gateway and the membership flow.
type Store interface {
	List() []User
	FindByID(id string) (User, bool)
	FindByEmail(email string) (User, bool)
}

// MemoryStore implements Store with an in-memory slice, standing in for the
// external profile document store.
type MemoryStore struct {
	items []User
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []User) *MemoryStore {
	return &MemoryStore{items: append([]User(nil), items...)}
}

// List returns the known profiles.
func (s *MemoryStore) List() []User {
	return append([]User(nil), s.items...)
}

// FindByID looks up a profile by account id.
func (s *MemoryStore) FindByID(id string) (User, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return User{}, false
}

// FindByEmail looks up a profile by email, case-insensitively.
func (s *MemoryStore) FindByEmail(email string) (User, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, item := range s.items {
		if strings.ToLower(item.Email) == email {
			return item, true
		}
	}
	return User{}, false
}

// Seed provides a handful of profiles for local runs and tests.
func Seed() []User {
	return []User{
		{
			ID:            "u-amber",
			Email:         "amber@example.com",
			DisplayName:   "Amber Lin",
			PhotoURL:      "https://example.com/avatars/amber.png",
			EmailVerified: true,
		},
		{
			ID:            "u-ben",
			Email:         "ben@example.com",
			DisplayName:   "Ben Chou",
			EmailVerified: true,
		},
		{
			ID:            "u-cleo",
			Email:         "cleo@example.com",
			DisplayName:   "Cleo Wang",
			EmailVerified: false,
		},
	}
}
