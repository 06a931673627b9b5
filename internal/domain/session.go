package domain

// Session is the identity derived for the signed-in user.
type Session struct {
	Email   string
	Name    string
	IsAdmin bool
}

// Viewer returns the permission subject for this session.
func (s Session) Viewer() Viewer {
	return Viewer{Email: s.Email, IsAdmin: s.IsAdmin}
}

// HasGroup reports whether groups contains the administrative group.
func HasGroup(groups []string, group string) bool {
	if group == "" {
		return false
	}
	for _, g := range groups {
		if g == group {
			return true
		}
	}
	return false
}
