package auth

import "fmt"

// Profile is created together with its user and removed with it.
type Profile struct {
	UserID    string
	Bio       string
	Location  string
	ImageURL  string
	IsPrivate bool
}

const DefaultProfileImageURL = "/static/default-profile.svg"

// VisibleTo reports whether actor may see the profile's activity. Private profiles
// are only visible to their owner.
func (profile *Profile) VisibleTo(actor Actor) bool {
	return !profile.IsPrivate || actor.Owns(profile.UserID)
}

type ProfileNotFoundError struct {
	UserID string
}

func (err ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile of user %q not found", err.UserID)
}

type InvalidProfileError struct {
	Reason string
}

func (err InvalidProfileError) Error() string {
	return "invalid profile: " + err.Reason
}
