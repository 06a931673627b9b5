package domain

// Viewer is the user looking at a ticket.
type Viewer struct {
	Email   string
	IsAdmin bool
}

// Permissions lists what a viewer may do with one ticket.
type Permissions struct {
	IsOwner         bool
	CanEdit         bool
	CanDelete       bool
	CanChangeStatus bool
}

// PermissionsFor evaluates the ownership and role rules for v on t.
// An empty viewer e-mail never owns a ticket.
func PermissionsFor(v Viewer, t Ticket) Permissions {
	owner := v.Email != "" && v.Email == t.UserEmail
	return Permissions{
		IsOwner:         owner,
		CanEdit:         v.IsAdmin || owner,
		CanDelete:       v.IsAdmin || owner,
		CanChangeStatus: v.IsAdmin,
	}
}
