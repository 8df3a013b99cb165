package ctxs

import (
	"context"

	"github.com/jackc/pgx/v5"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
)

type ctxKey string

const (
	TxKey    ctxKey = "pgxTxKey"
	ActorKey ctxKey = "actorKey"
)

// Actor is the caller identity forwarded by the upstream auth proxy.
type Actor struct {
	Email string
	Role  role.Actor
}

func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

func Tx(ctx context.Context) (pgx.Tx, bool) {
	val := ctx.Value(TxKey)
	if val == nil {
		return nil, false
	}

	tx, ok := val.(pgx.Tx)
	return tx, ok
}

func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

func ActorFromCtx(ctx context.Context) (*Actor, bool) {
	val := ctx.Value(ActorKey)
	if val == nil {
		return nil, false
	}

	actor, ok := val.(*Actor)
	return actor, ok
}
