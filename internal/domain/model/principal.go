package model

// Principal is the authenticated actor of an operation.
type Principal struct {
	UserID     string
	Role       string
	IsVerified bool
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

func (p Principal) IsAnonymous() bool { return p.UserID == "" }
