package transcript

import (
	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/sambhavnoobcoder/solvent-ai/internal/summarizer"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*FileStore, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewFileStore(c.TranscriptPath, c.SummaryPath), nil
	})
	do.Provide(injector, func(i do.Injector) (transcript.Store, error) {
		return do.MustInvoke[*FileStore](i), nil
	})
	do.Provide(injector, func(i do.Injector) (summarizer.SummaryWriter, error) {
		return do.MustInvoke[*FileStore](i), nil
	})
}
