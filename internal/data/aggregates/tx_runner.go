package aggregates

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

// TxRunner scopes multi-row writes to one transaction.
type TxRunner interface {
	// InTx joins the transaction already carried by dbc, or opens a new one.
	InTx(dbc dbctx.Context, fn func(txc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(dbc dbctx.Context, fn func(txc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if dbc.Tx != nil {
		return fn(dbc)
	}
	if r == nil || r.db == nil {
		return MapError("tx", errors.New("transaction runner has nil db"))
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
