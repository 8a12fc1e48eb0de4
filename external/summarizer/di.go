package summarizer

import (
	"fmt"

	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/sambhavnoobcoder/solvent-ai/internal/summarizer"
	"github.com/samber/do/v2"
)

func newModels(c *config.Config) (summarizer.Models, error) {
	switch c.SummarizerBackend {
	case config.SummarizerBackendHuggingFace:
		return summarizer.Models{
			Summary: NewHuggingFaceModel(c.HuggingFaceEndpoint, c.SummaryModel, c.HuggingFaceAPIToken),
			Refine:  NewHuggingFaceModel(c.HuggingFaceEndpoint, c.RefineModel, c.HuggingFaceAPIToken),
		}, nil
	case config.SummarizerBackendGemini:
		m := NewGeminiModel(c.GeminiAPIKey, c.GeminiModel)
		return summarizer.Models{Summary: m, Refine: m}, nil
	default:
		return summarizer.Models{}, fmt.Errorf("SUMMARIZER_BACKEND %q is not supported", c.SummarizerBackend)
	}
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (summarizer.Models, error) {
		return newModels(do.MustInvoke[*config.Config](i))
	})
}
