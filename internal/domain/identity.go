package domain

// IdentityKind distinguishes anonymous shoppers from authenticated users.
type IdentityKind string

const (
	IdentityGuest IdentityKind = "guest"
	IdentityUser  IdentityKind = "user"
)

// Identity is the caller identity every cart operation dispatches on. Exactly
// one of GuestID or UserID is set, depending on Kind. It is passed explicitly
// into each call so the core never reads ambient session state.
type Identity struct {
	Kind    IdentityKind
	GuestID string
	UserID  string
}

// GuestIdentity builds an identity for an anonymous shopper.
func GuestIdentity(guestID string) Identity {
	return Identity{Kind: IdentityGuest, GuestID: guestID}
}

// UserIdentity builds an identity for an authenticated user.
func UserIdentity(userID string) Identity {
	return Identity{Kind: IdentityUser, UserID: userID}
}

// IsGuest reports whether the identity belongs to an anonymous shopper.
func (i Identity) IsGuest() bool {
	return i.Kind == IdentityGuest
}
