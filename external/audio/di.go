package audio

import (
	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*PulseMicrophone, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewPulseMicrophone(c.AudioInput, c.AudioFallback), nil
	})
	do.Provide(injector, func(i do.Injector) (audio.Microphone, error) {
		return do.MustInvoke[*PulseMicrophone](i), nil
	})
	do.Provide(injector, func(i do.Injector) (audio.DeviceLister, error) {
		return do.MustInvoke[*PulseMicrophone](i), nil
	})
}
