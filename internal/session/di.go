package session

import (
	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcriber"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*State, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewState(cfg.SpeakerA, cfg.SpeakerB), nil
	})
	do.Provide(injector, func(i do.Injector) (*Controller, error) {
		cfg := do.MustInvoke[*config.Config](i)
		state := do.MustInvoke[*State](i)
		mic := do.MustInvoke[audio.Microphone](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		store := do.MustInvoke[transcript.Store](i)
		repo := do.MustInvoke[repository.Repository](i)
		return NewController(ControllerConfigFrom(cfg), state, mic, stt, store, repo), nil
	})
}
