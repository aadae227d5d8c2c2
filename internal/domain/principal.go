package domain

type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

// Principal is the caller of a core operation. It is passed explicitly to
// every operation that needs it.
type Principal struct {
	Role   Role
	UserID int64
}

func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

func UserPrincipal(id int64) Principal {
	return Principal{Role: RoleUser, UserID: id}
}

func AdminPrincipal() Principal {
	return Principal{Role: RoleAdmin}
}

func (p Principal) Authenticated() bool {
	return p.Role == RoleUser || p.Role == RoleAdmin
}

// RequireUser returns the user id of a signed-in visitor.
func (p Principal) RequireUser() (int64, error) {
	switch p.Role {
	case RoleUser:
		return p.UserID, nil
	case RoleAdmin:
		return 0, ErrForbidden
	default:
		return 0, ErrUnauthenticated
	}
}

func (p Principal) RequireAdmin() error {
	switch p.Role {
	case RoleAdmin:
		return nil
	case RoleUser:
		return ErrForbidden
	default:
		return ErrUnauthenticated
	}
}
