package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/sambhavnoobcoder/solvent-ai/internal/config"
)

type envConfig struct {
	Env     string `env:"ENV" envDefault:"production"`
	LogPath string `env:"LOG_PATH"`

	TranscriptPath string `env:"TRANSCRIPT_PATH" envDefault:"conversation_transcript.txt"`
	SummaryPath    string `env:"SUMMARY_PATH" envDefault:"conversation_summary.txt"`
	SpeakerA       string `env:"SPEAKER_A" envDefault:"Doctor"`
	SpeakerB       string `env:"SPEAKER_B" envDefault:"Patient"`

	TranscribeLanguage         string `env:"TRANSCRIBE_LANGUAGE" envDefault:"en-US"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"short"`

	AudioInput         string        `env:"AUDIO_INPUT" envDefault:"default"`
	AudioFallback      string        `env:"AUDIO_FALLBACK" envDefault:"default"`
	ListenTimeout      time.Duration `env:"LISTEN_TIMEOUT" envDefault:"1s"`
	PhraseTimeLimit    time.Duration `env:"PHRASE_TIME_LIMIT" envDefault:"5s"`
	AmbientCalibration time.Duration `env:"AMBIENT_CALIBRATION" envDefault:"2s"`
	StopGracePeriod    time.Duration `env:"STOP_GRACE_PERIOD" envDefault:"5s"`

	SummarizerBackend   string `env:"SUMMARIZER_BACKEND" envDefault:"huggingface"`
	HuggingFaceAPIToken string `env:"HUGGINGFACE_API_TOKEN"`
	HuggingFaceEndpoint string `env:"HUGGINGFACE_ENDPOINT" envDefault:"https://router.huggingface.co/hf-inference/models"`
	SummaryModel        string `env:"SUMMARY_MODEL" envDefault:"facebook/bart-large-cnn"`
	RefineModel         string `env:"REFINE_MODEL" envDefault:"google/flan-t5-large"`
	GeminiAPIKey        string `env:"GEMINI_API_KEY"`
	GeminiModel         string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	ArchiveDatabaseURL      string `env:"ARCHIVE_DATABASE_URL"`
	SummaryWebhookURL       string `env:"SUMMARY_WEBHOOK_URL"`
	DiscordToken            string `env:"DISCORD_TOKEN"`
	DiscordSummaryChannelID string `env:"DISCORD_SUMMARY_CHANNEL_ID"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		LogPath:                    raw.LogPath,
		TranscriptPath:             raw.TranscriptPath,
		SummaryPath:                raw.SummaryPath,
		SpeakerA:                   raw.SpeakerA,
		SpeakerB:                   raw.SpeakerB,
		TranscribeLanguage:         raw.TranscribeLanguage,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		AudioInput:                 raw.AudioInput,
		AudioFallback:              raw.AudioFallback,
		ListenTimeout:              raw.ListenTimeout,
		PhraseTimeLimit:            raw.PhraseTimeLimit,
		AmbientCalibration:         raw.AmbientCalibration,
		StopGracePeriod:            raw.StopGracePeriod,
		SummarizerBackend:          raw.SummarizerBackend,
		HuggingFaceAPIToken:        raw.HuggingFaceAPIToken,
		HuggingFaceEndpoint:        raw.HuggingFaceEndpoint,
		SummaryModel:               raw.SummaryModel,
		RefineModel:                raw.RefineModel,
		GeminiAPIKey:               raw.GeminiAPIKey,
		GeminiModel:                raw.GeminiModel,
		ArchiveDatabaseURL:         raw.ArchiveDatabaseURL,
		SummaryWebhookURL:          raw.SummaryWebhookURL,
		DiscordToken:               raw.DiscordToken,
		DiscordSummaryChannelID:    raw.DiscordSummaryChannelID,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
