package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetTx retrieves transaction from context
func GetTx(ctx context.Context) (*sql.Tx, error) {
	tx, ok := ctx.Value(ContextKeyTransaction).(*sql.Tx)
	if !ok {
		return nil, errors.New("transaction not found in context")
	}
	return tx, nil
}

// WithTx runs fn inside a transaction bound to the context passed to fn.
// A transaction already bound to ctx is reused.
func (d *Data) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, err := GetTx(ctx); err == nil {
		return fn(ctx)
	}
	if d.isClosed() {
		return errors.New("data layer is closed")
	}
	if d.db == nil {
		return errors.New("database connection is nil")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, ContextKeyTransaction, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w, rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
