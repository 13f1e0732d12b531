package domain

// ScopeKind selects which rows a caller may list.
type ScopeKind int

const (
	// ScopeNone matches nothing. It is the zero value so an unresolved scope fails closed.
	ScopeNone ScopeKind = iota
	// ScopeAll matches every row.
	ScopeAll
	// ScopeParticipant matches projects the user created or is a member of,
	// and tasks belonging to those projects.
	ScopeParticipant
	// ScopeAssignee matches tasks assigned to the user.
	ScopeAssignee
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAll:
		return "all"
	case ScopeParticipant:
		return "participant"
	case ScopeAssignee:
		return "assignee"
	default:
		return "none"
	}
}

// Scope is a listing filter bound to a user. Repositories translate it into
// query predicates; MatchProject and MatchTask are the same rules in memory.
type Scope struct {
	Kind   ScopeKind
	UserID int64
}

func (s Scope) MatchProject(p *Project) bool {
	if p == nil {
		return false
	}
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeParticipant:
		return p.CreatedBy == s.UserID || p.HasMember(s.UserID)
	default:
		return false
	}
}

// MatchTask evaluates the scope for t; project is the task's project or nil
// when it cannot be resolved.
func (s Scope) MatchTask(t *Task, project *Project) bool {
	if t == nil {
		return false
	}
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeParticipant:
		return project != nil && project.ID == t.ProjectID && s.MatchProject(project)
	case ScopeAssignee:
		return t.IsAssignedTo(s.UserID)
	default:
		return false
	}
}
