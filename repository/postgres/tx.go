package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/projecthub/repository"
)

type txKey struct{}

type transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor returns a Transactor that opens pgx transactions on pool.
func NewTransactor(pool *pgxpool.Pool) repository.Transactor {
	return &transactor{pool: pool}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	rollback := func() error {
		rbErr := tx.Rollback(context.WithoutCancel(ctx))
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return rbErr
		}
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			_ = rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// NewStore wires every Postgres repository around pool.
func NewStore(pool *pgxpool.Pool) *repository.Store {
	return &repository.Store{
		Tx:       NewTransactor(pool),
		Users:    NewUserRepository(pool),
		Projects: NewProjectRepository(pool),
		Tasks:    NewTaskRepository(pool),
		Comments: NewCommentRepository(pool),
		Stories:  NewStoryRepository(pool),
		Activity: NewActivityRepository(pool),
	}
}
