// Package sqlbuild renders listing scopes into SQL predicates shared by the
// Postgres and SQLite repositories. Clauses use '?' placeholders; Postgres
// callers pass the final query through Rebind.
package sqlbuild

import (
	"strconv"
	"strings"

	"github.com/fastygo/projecthub/domain"
)

const matchNothing = "1 = 0"

// Where accumulates AND-ed clauses and their arguments in order.
type Where struct {
	clauses []string
	args    []any
}

func (w *Where) Add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *Where) Args() []any {
	return w.args
}

func (w *Where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Rebind rewrites '?' placeholders into $1..$n.
func Rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ProjectScope expects the projects table aliased as p.
func ProjectScope(w *Where, scope domain.Scope) {
	switch scope.Kind {
	case domain.ScopeAll:
	case domain.ScopeParticipant:
		w.Add(`(p.created_by = ? OR EXISTS (
			SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = ?))`,
			scope.UserID, scope.UserID)
	default:
		w.Add(matchNothing)
	}
}

// TaskScope expects tasks aliased as t joined to their project as p.
func TaskScope(w *Where, scope domain.Scope) {
	switch scope.Kind {
	case domain.ScopeAll:
	case domain.ScopeParticipant:
		w.Add(`(p.created_by = ? OR EXISTS (
			SELECT 1 FROM project_members m WHERE m.project_id = t.project_id AND m.user_id = ?))`,
			scope.UserID, scope.UserID)
	case domain.ScopeAssignee:
		w.Add("t.assigned_to = ?", scope.UserID)
	default:
		w.Add(matchNothing)
	}
}

// Placeholders returns "?, ?, ..." for n values.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
