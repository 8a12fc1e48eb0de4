package watcher

import (
	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/sambhavnoobcoder/solvent-ai/internal/watcher"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*FileWatcher, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewFileWatcher(c.TranscriptPath)
	})
	do.Provide(injector, func(i do.Injector) (watcher.Watcher, error) {
		return do.MustInvoke[*FileWatcher](i), nil
	})
}
