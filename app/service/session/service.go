package session

import (
	"fmt"

	"negosim/app/config"

	"github.com/samber/do"
)

// New provides the Store backend selected by config.
func New(di *do.Injector) (Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	switch cfg.Store.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Store.Path)
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}
