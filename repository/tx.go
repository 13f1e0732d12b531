package repository

import "context"

// Transactor runs fn inside a single store transaction carried by the context.
// The transaction commits when fn returns nil and rolls back when fn returns an
// error or panics.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles every repository backed by one database.
type Store struct {
	Tx       Transactor
	Users    UserRepository
	Projects ProjectRepository
	Tasks    TaskRepository
	Comments CommentRepository
	Stories  StoryRepository
	Activity ActivityRepository
}
