// Package access decides which rows a caller may list and which roles may
// reach an operation.
package access

import "github.com/fastygo/projecthub/domain"

// ProjectScope returns the project listing scope for c.
func ProjectScope(c domain.Caller) domain.Scope {
	switch c.Role {
	case domain.RoleAdmin:
		return domain.Scope{Kind: domain.ScopeAll, UserID: c.ID}
	case domain.RoleManager, domain.RoleDeveloper:
		return domain.Scope{Kind: domain.ScopeParticipant, UserID: c.ID}
	default:
		return domain.Scope{Kind: domain.ScopeNone, UserID: c.ID}
	}
}

// TaskScope returns the task listing scope for c. Developers only see their
// own assignments.
func TaskScope(c domain.Caller) domain.Scope {
	switch c.Role {
	case domain.RoleAdmin:
		return domain.Scope{Kind: domain.ScopeAll, UserID: c.ID}
	case domain.RoleManager:
		return domain.Scope{Kind: domain.ScopeParticipant, UserID: c.ID}
	case domain.RoleDeveloper:
		return domain.Scope{Kind: domain.ScopeAssignee, UserID: c.ID}
	default:
		return domain.Scope{Kind: domain.ScopeNone, UserID: c.ID}
	}
}

// Allowed reports whether role is in allowed.
func Allowed(role domain.Role, allowed ...domain.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns domain.ErrForbidden unless c holds one of the allowed roles.
func Require(c domain.Caller, allowed ...domain.Role) error {
	if !Allowed(c.Role, allowed...) {
		return domain.ErrForbidden
	}
	return nil
}
