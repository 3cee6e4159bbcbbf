package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Or returns dbc.Tx when set, fallback otherwise, already scoped to dbc.Ctx.
func (dbc Context) Or(fallback *gorm.DB) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = fallback
	}
	if dbc.Ctx == nil {
		return txx.WithContext(context.Background())
	}
	return txx.WithContext(dbc.Ctx)
}

// WithTx returns a copy bound to tx.
func (dbc Context) WithTx(tx *gorm.DB) Context {
	return Context{Ctx: dbc.Ctx, Tx: tx}
}
