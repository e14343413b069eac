package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type Transaction struct {
	repositories map[RepositoryName]RepositoryFactory
	tx           pgx.Tx
}

func NewTransaction(tx pgx.Tx, repositories map[RepositoryName]RepositoryFactory) *Transaction {
	return &Transaction{
		repositories: repositories,
		tx:           tx,
	}
}

// Get возвращает репозиторий, привязанный к транзакции, или ошибку ErrRepositoryNotRegistered.
func (t *Transaction) Get(name RepositoryName) (Repository, error) {
	if repo, ok := t.repositories[name]; ok {
		return repo(t.tx), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrRepositoryNotRegistered, name)
}

// Nested выполняет fn внутри точки сохранения (SAVEPOINT). Ошибка fn откатывает только изменения,
// сделанные внутри fn, внешняя транзакция остается рабочей.
func (t *Transaction) Nested(ctx context.Context, fn func(context.Context, TX) error) (err error) {
	sp, spErr := t.tx.Begin(ctx)
	if spErr != nil {
		return spErr //nolint:wrapcheck
	}
	defer func() {
		if rollbackErr := sp.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rollbackErr)
		}
	}()

	if fnErr := fn(ctx, NewTransaction(sp, t.repositories)); fnErr != nil {
		return fnErr
	}
	return sp.Commit(ctx) //nolint:wrapcheck
}

// GetAs возвращает зарегистрированный репозиторий с именем name приведенный к типу T
// или ошибки ErrRepositoryNotRegistered в случае не найденного репозитория с указанным name, ErrInvalidRepositoryType.
func GetAs[T any](t TX, name RepositoryName) (T, error) {
	repo, err := t.Get(name)
	var res T
	if err != nil {
		return res, err //nolint:wrapcheck
	}
	res, ok := repo.(T)
	if !ok {
		return res, fmt.Errorf("%w: %s is %T", ErrInvalidRepositoryType, name, repo)
	}
	return res, nil
}
