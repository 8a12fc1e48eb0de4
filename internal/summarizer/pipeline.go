// Package summarizer turns the transcript into a short, conversational
// summary in two model passes.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/sambhavnoobcoder/solvent-ai/internal/discord"
	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
	"github.com/sambhavnoobcoder/solvent-ai/internal/webhook"
)

const (
	SummarizePrefix = "summarize: "
	RefinePrefix    = "Paraphrase this in a more natural, conversational style: "

	publishTimeout = 30 * time.Second
)

// ErrEmptyTranscript reports a transcript file with no content to summarize.
var ErrEmptyTranscript = errors.New("transcript is empty")

// GenerationParams mirrors the usual seq2seq generation options. Zero values
// mean "not set".
type GenerationParams struct {
	MaxLength         int
	MinLength         int
	NumBeams          int
	LengthPenalty     float64
	NoRepeatNgramSize int
	DoSample          bool
	// Truncation caps the input length in tokens.
	Truncation int
}

var (
	SummarizeParams = GenerationParams{
		MaxLength:         150,
		MinLength:         50,
		NumBeams:          4,
		LengthPenalty:     2.0,
		NoRepeatNgramSize: 3,
		DoSample:          false,
		Truncation:        1024,
	}
	RefineParams = GenerationParams{
		MaxLength:         100,
		NumBeams:          4,
		LengthPenalty:     1.5,
		NoRepeatNgramSize: 3,
		DoSample:          false,
	}
)

// Model generates text for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	Name() string
}

// Models pairs the summarization and refinement models.
type Models struct {
	Summary Model
	Refine  Model
}

type SummaryWriter interface {
	// WriteSummary replaces the summary file with text.
	WriteSummary(text string) error
	SummaryPath() string
}

type Result struct {
	Draft       string
	Summary     string
	GeneratedAt time.Time
}

type Pipeline struct {
	store            transcript.Store
	writer           SummaryWriter
	models           Models
	repo             repository.SummaryRepository
	webhook          webhook.Sender
	discord          discord.Client
	discordChannelID string
	now              func() time.Time
}

func NewPipeline(store transcript.Store, writer SummaryWriter, models Models, repo repository.SummaryRepository, wh webhook.Sender, dc discord.Client, discordChannelID string) *Pipeline {
	return &Pipeline{
		store:            store,
		writer:           writer,
		models:           models,
		repo:             repo,
		webhook:          wh,
		discord:          dc,
		discordChannelID: discordChannelID,
		now:              time.Now,
	}
}

// Run reads, cleans, summarizes, refines and overwrites the summary file.
// A missing transcript or any model failure aborts before anything is
// written. Publishing happens afterwards and never fails the run.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	raw, err := p.store.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read transcript: %w", err)
	}
	cleaned := transcript.Clean(raw)
	if strings.TrimSpace(cleaned) == "" {
		return Result{}, ErrEmptyTranscript
	}

	slog.Info("generating summary", "model", p.models.Summary.Name(), "chars", len(cleaned))
	draft, err := p.models.Summary.Generate(ctx, SummarizePrefix+cleaned, SummarizeParams)
	if err != nil {
		return Result{}, fmt.Errorf("summarize: %w", err)
	}

	slog.Info("refining summary", "model", p.models.Refine.Name())
	refined, err := p.models.Refine.Generate(ctx, RefinePrefix+draft, RefineParams)
	if err != nil {
		return Result{}, fmt.Errorf("refine summary: %w", err)
	}
	refined = strings.TrimSpace(refined)

	if err := p.writer.WriteSummary(refined); err != nil {
		return Result{}, fmt.Errorf("write summary: %w", err)
	}
	res := Result{Draft: draft, Summary: refined, GeneratedAt: p.now()}
	slog.Info("summary written", "path", p.writer.SummaryPath(), "chars", len(refined))

	p.publish(ctx, res, raw)
	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, res Result, rawTranscript string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := p.repo.SaveSummary(ctx, repository.SaveSummaryInput{
		TranscriptPath: p.store.Path(),
		Draft:          res.Draft,
		Content:        res.Summary,
		CreatedAt:      res.GeneratedAt,
	}); err != nil {
		slog.Error("failed to archive summary", "error", err)
	}

	if err := p.webhook.SendSummary(ctx, webhook.SummaryPayload{
		Summary:        res.Summary,
		Draft:          res.Draft,
		TranscriptPath: p.store.Path(),
		SummaryPath:    p.writer.SummaryPath(),
		SummaryModel:   p.models.Summary.Name(),
		RefineModel:    p.models.Refine.Name(),
		GeneratedAt:    res.GeneratedAt,
	}); err != nil {
		slog.Error("failed to send summary webhook", "error", err)
	}

	if p.discord.Enabled() && p.discordChannelID != "" {
		p.postDiscord(res.Summary, rawTranscript)
	}
}

// postDiscord attaches the transcript to the summary post. When the upload is
// rejected the summary is posted on its own.
func (p *Pipeline) postDiscord(summary, rawTranscript string) {
	content := discordContent(summary)
	err := p.discord.SendChannelMessageWithFile(discord.FileMessage{
		ChannelID: p.discordChannelID,
		Content:   content,
		Filename:  filepath.Base(p.store.Path()),
		FileBody:  []byte(rawTranscript),
	})
	if err == nil {
		slog.Info("summary posted to discord", "channel", p.discord.ChannelName(p.discordChannelID))
		return
	}
	slog.Warn("failed to attach transcript to discord post, sending summary only", "error", err, "channel_id", p.discordChannelID)
	if err := p.discord.SendChannelMessage(p.discordChannelID, content); err != nil {
		slog.Error("failed to post summary to discord", "error", err, "channel_id", p.discordChannelID)
		return
	}
	slog.Info("summary posted to discord without transcript", "channel", p.discord.ChannelName(p.discordChannelID))
}

const discordHeading = "**Conversation summary**\n"

// discordContent fits the summary into one Discord message.
func discordContent(summary string) string {
	content := discordHeading + summary
	r := []rune(content)
	if len(r) <= discord.MessageLimit {
		return content
	}
	return string(r[:discord.MessageLimit-1]) + "…"
}
