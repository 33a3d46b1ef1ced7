package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction. A nil
// Tx means "use the repo's own handle".
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func (c Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}
