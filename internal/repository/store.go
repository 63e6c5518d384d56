package repository

import (
	"context"

	"community-service/internal/apperr"
	"community-service/internal/ctxstore"
	"community-service/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const _txKey = ctxstore.Key("tx")

// Store is shared by every repository. Queries run inside the transaction
// carried by ctx when there is one.
type Store struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Atomic runs fn in a transaction. A nested call joins the outer one.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctxstore.From[*sqlx.Tx](ctx, _txKey); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctxstore.With(ctx, _txKey, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.ErrorLogger.Error("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(err, "transaction")
	}
	return nil
}

func (s *Store) conn(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctxstore.From[*sqlx.Tx](ctx, _txKey); ok {
		return tx
	}
	return s.db
}

// get builds q and scans one row into dest.
func (s *Store) get(ctx context.Context, entity string, dest any, q squirrel.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "build %s query", entity)
	}
	trace(entity, query, args)
	return translate(sqlx.GetContext(ctx, s.conn(ctx), dest, query, args...), entity)
}

func (s *Store) selectAll(ctx context.Context, entity string, dest any, q squirrel.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "build %s query", entity)
	}
	trace(entity, query, args)
	return translate(sqlx.SelectContext(ctx, s.conn(ctx), dest, query, args...), entity)
}

// exec returns NotFound when no row was affected.
func (s *Store) exec(ctx context.Context, entity string, q squirrel.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "build %s query", entity)
	}
	trace(entity, query, args)

	res, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, entity)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, entity)
	}
	if n == 0 {
		return apperr.NotFoundf("%s not found!", title(entity))
	}
	return nil
}

func trace(entity, query string, args []any) {
	logger.ContextLogger.Debug("build query",
		zap.String("entity", entity),
		zap.String("sql", query),
		zap.Int("args", len(args)),
	)
}
