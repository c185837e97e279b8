package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction so a
// service can run repo calls inside or outside an enclosing transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
