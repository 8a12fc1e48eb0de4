package summarizer

import (
	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/sambhavnoobcoder/solvent-ai/internal/discord"
	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
	"github.com/sambhavnoobcoder/solvent-ai/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Pipeline, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[transcript.Store](i)
		writer := do.MustInvoke[SummaryWriter](i)
		models := do.MustInvoke[Models](i)
		repo := do.MustInvoke[repository.Repository](i)
		wh := do.MustInvoke[webhook.Sender](i)
		dc := do.MustInvoke[discord.Client](i)
		return NewPipeline(store, writer, models, repo, wh, dc, cfg.DiscordSummaryChannelID), nil
	})
}
