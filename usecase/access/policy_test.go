package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/projecthub/domain"
)

func TestScopes(t *testing.T) {
	tests := []struct {
		role    domain.Role
		project domain.ScopeKind
		task    domain.ScopeKind
	}{
		{domain.RoleAdmin, domain.ScopeAll, domain.ScopeAll},
		{domain.RoleManager, domain.ScopeParticipant, domain.ScopeParticipant},
		{domain.RoleDeveloper, domain.ScopeParticipant, domain.ScopeAssignee},
		{domain.Role("intern"), domain.ScopeNone, domain.ScopeNone},
		{domain.Role(""), domain.ScopeNone, domain.ScopeNone},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			caller := domain.Caller{ID: 9, Role: tt.role}
			assert.Equal(t, tt.project, ProjectScope(caller).Kind)
			assert.Equal(t, tt.task, TaskScope(caller).Kind)
			assert.Equal(t, int64(9), TaskScope(caller).UserID)
		})
	}
}

func TestScopes_MatchInMemory(t *testing.T) {
	manager := domain.Caller{ID: 1, Role: domain.RoleManager}
	dev := domain.Caller{ID: 2, Role: domain.RoleDeveloper}
	assignee := dev.ID

	owned := &domain.Project{ID: 10, CreatedBy: manager.ID}
	joined := &domain.Project{ID: 11, CreatedBy: 99, Members: []domain.User{{ID: dev.ID}}}
	foreign := &domain.Project{ID: 12, CreatedBy: 99}

	assert.True(t, ProjectScope(manager).MatchProject(owned))
	assert.False(t, ProjectScope(manager).MatchProject(joined))
	assert.True(t, ProjectScope(dev).MatchProject(joined))
	assert.False(t, ProjectScope(dev).MatchProject(foreign))

	inOwned := &domain.Task{ID: 1, ProjectID: owned.ID}
	mine := &domain.Task{ID: 2, ProjectID: foreign.ID, AssignedTo: &assignee}

	assert.True(t, TaskScope(manager).MatchTask(inOwned, owned))
	assert.False(t, TaskScope(manager).MatchTask(mine, foreign))
	assert.True(t, TaskScope(dev).MatchTask(mine, foreign))
	assert.False(t, TaskScope(dev).MatchTask(inOwned, owned))
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(domain.Caller{Role: domain.RoleManager}, domain.RoleAdmin, domain.RoleManager))
	assert.ErrorIs(t, Require(domain.Caller{Role: domain.RoleDeveloper}, domain.RoleAdmin, domain.RoleManager), domain.ErrForbidden)
	assert.ErrorIs(t, Require(domain.Caller{Role: domain.RoleAdmin}), domain.ErrForbidden)
	assert.False(t, Allowed(domain.RoleAdmin))
}
