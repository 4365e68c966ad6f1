package auth

// Actor is the identity a core operation runs as. The zero value is anonymous.
type Actor struct {
	UserID    string
	Superuser bool
}

var AnonymousActor = Actor{}

func UserActor(user *User) Actor {
	return Actor{UserID: user.ID, Superuser: user.IsSuperuser}
}

func (actor Actor) IsAnonymous() bool {
	return actor.UserID == ""
}

// Owns reports whether actor is the given author.
func (actor Actor) Owns(authorID string) bool {
	return !actor.IsAnonymous() && actor.UserID == authorID
}

// CanModerate reports whether actor may remove content written by authorID.
func (actor Actor) CanModerate(authorID string) bool {
	return actor.Owns(authorID) || (!actor.IsAnonymous() && actor.Superuser)
}

type AuthenticationRequiredError struct {
	Operation string
}

func (err AuthenticationRequiredError) Error() string {
	return "authentication required to " + err.Operation
}

// RequireUser returns an *AuthenticationRequiredError when actor is anonymous.
func RequireUser(actor Actor, operation string) error {
	if actor.IsAnonymous() {
		return &AuthenticationRequiredError{Operation: operation}
	}

	return nil
}
