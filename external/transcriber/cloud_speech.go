package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	externalaudio "github.com/sambhavnoobcoder/solvent-ai/external/audio"
	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcriber"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
}

// recognizeFunc is the single RPC the transcriber needs from the client.
type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

type CloudSpeechTranscriber struct {
	projectID       string
	credentialsJSON string
	language        string
	location        string
	model           string

	mu        sync.Mutex
	client    *speech.Client
	recognize recognizeFunc
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) *CloudSpeechTranscriber {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}
	return &CloudSpeechTranscriber{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		language:        cfg.Language,
		location:        location,
		model:           strings.TrimSpace(cfg.Model),
	}
}

// Transcribe sends one utterance to Recognize and returns the joined top
// alternatives. An empty result is reported as transcriber.ErrUnrecognized;
// transport and API failures come back as *transcriber.ServiceError.
func (t *CloudSpeechTranscriber) Transcribe(ctx context.Context, utt audio.Utterance) (string, error) {
	wav, err := externalaudio.EncodeWAV(utt)
	if err != nil {
		return "", err
	}

	recognize, err := t.recognizer(ctx)
	if err != nil {
		return "", &transcriber.ServiceError{Op: "connect", Err: err}
	}

	slog.Debug("sending utterance to cloud speech", "duration", utt.Duration(), "bytes", len(wav))
	resp, err := recognize(ctx, t.buildRequest(wav))
	if err != nil {
		return "", classifyError(err)
	}

	text := transcriptFromResponse(resp)
	if text == "" {
		return "", transcriber.ErrUnrecognized
	}
	return text, nil
}

func (t *CloudSpeechTranscriber) buildRequest(wav []byte) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.projectID, t.location),
		Config: &speechpb.RecognitionConfig{
			Model:         t.model,
			LanguageCodes: []string{t.language},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{EnableAutomaticPunctuation: true},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: wav},
	}
}

// recognizer dials the client on first use so that commands which never
// transcribe do not need credentials.
func (t *CloudSpeechTranscriber) recognizer(ctx context.Context) (recognizeFunc, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recognize != nil {
		return t.recognize, nil
	}

	opts := []option.ClientOption{}
	if t.credentialsJSON != "" {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			CredentialsJSON: []byte(t.credentialsJSON),
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, fmt.Errorf("detect credentials: %w", err)
		}
		opts = append(opts, option.WithAuthCredentials(creds))
	}
	if t.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	slog.Info("cloud speech client ready", "location", t.location, "model", t.model, "language", t.language)

	t.client = client
	t.recognize = func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}
	return t.recognize, nil
}

// Shutdown closes the underlying client. It is called by the injector.
func (t *CloudSpeechTranscriber) Shutdown() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	t.recognize = nil
	return err
}

func transcriptFromResponse(resp *speechpb.RecognizeResponse) string {
	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// classifyError keeps cancellation recognisable to the caller and folds
// everything else into a ServiceError.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.Canceled {
		return context.Canceled
	}
	return &transcriber.ServiceError{Op: "recognize", Err: err}
}
