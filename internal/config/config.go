package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	SummarizerBackendHuggingFace = "huggingface"
	SummarizerBackendGemini      = "gemini"
)

type Config struct {
	Env     string
	LogPath string

	TranscriptPath string
	SummaryPath    string
	SpeakerA       string
	SpeakerB       string

	TranscribeLanguage         string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string

	AudioInput         string
	AudioFallback      string
	ListenTimeout      time.Duration
	PhraseTimeLimit    time.Duration
	AmbientCalibration time.Duration
	StopGracePeriod    time.Duration

	SummarizerBackend   string
	HuggingFaceAPIToken string
	HuggingFaceEndpoint string
	SummaryModel        string
	RefineModel         string
	GeminiAPIKey        string
	GeminiModel         string

	ArchiveDatabaseURL      string
	SummaryWebhookURL       string
	DiscordToken            string
	DiscordSummaryChannelID string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if strings.TrimSpace(req.value) == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.SpeakerA == c.SpeakerB {
		return fmt.Errorf("SPEAKER_A and SPEAKER_B must differ, both are %q", c.SpeakerA)
	}
	for _, d := range c.durationChecks() {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	if c.AmbientCalibration < 0 {
		return fmt.Errorf("AMBIENT_CALIBRATION must not be negative, got %s", c.AmbientCalibration)
	}
	switch c.SummarizerBackend {
	case SummarizerBackendHuggingFace:
		if c.HuggingFaceEndpoint == "" {
			return fmt.Errorf("HUGGINGFACE_ENDPOINT is required when SUMMARIZER_BACKEND=%s", SummarizerBackendHuggingFace)
		}
	case SummarizerBackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when SUMMARIZER_BACKEND=%s", SummarizerBackendGemini)
		}
	default:
		return fmt.Errorf("SUMMARIZER_BACKEND %q is not supported", c.SummarizerBackend)
	}
	if (c.DiscordToken == "") != (c.DiscordSummaryChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_SUMMARY_CHANNEL_ID must be set together")
	}
	return nil
}

// ValidateCapture checks the settings only live transcription needs, so that
// summarize can run on a machine without speech credentials.
func (c *Config) ValidateCapture() error {
	if c.GoogleCloudProjectID == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID is required for transcription")
	}
	if c.GoogleCloudSpeechLocation == "" {
		return fmt.Errorf("GOOGLE_CLOUD_SPEECH_LOCATION is required for transcription")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "TRANSCRIPT_PATH", value: c.TranscriptPath},
		{name: "SUMMARY_PATH", value: c.SummaryPath},
		{name: "SPEAKER_A", value: c.SpeakerA},
		{name: "SPEAKER_B", value: c.SpeakerB},
		{name: "TRANSCRIBE_LANGUAGE", value: c.TranscribeLanguage},
		{name: "SUMMARY_MODEL", value: c.SummaryModel},
		{name: "REFINE_MODEL", value: c.RefineModel},
	}
}

type durationField struct {
	name  string
	value time.Duration
}

func (c *Config) durationChecks() []durationField {
	return []durationField{
		{name: "LISTEN_TIMEOUT", value: c.ListenTimeout},
		{name: "PHRASE_TIME_LIMIT", value: c.PhraseTimeLimit},
		{name: "STOP_GRACE_PERIOD", value: c.StopGracePeriod},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveDatabaseURL != ""
}
