package auth

// Role is the caller's authorization role.
type Role string

const (
	RoleBuyer         Role = "BUYER"
	RoleBrandAdmin    Role = "BRAND_ADMIN"
	RolePlatformAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleBrandAdmin, RolePlatformAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role manages orders rather than places them.
func (r Role) IsAdmin() bool {
	return r == RoleBrandAdmin || r == RolePlatformAdmin
}

// Identity is the decoded, already validated caller.
type Identity struct {
	UserID   string
	Username string
	Role     Role
	BrandID  string
}

// TokenSubject is the user data embedded in an access token.
type TokenSubject struct {
	UserID   string
	Email    string
	Username string
	Role     Role
	BrandID  string
}
