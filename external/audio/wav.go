package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"

	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
)

const wavBitDepth = 16

// EncodeWAV renders an utterance as a mono 16-bit RIFF/WAV file in memory.
func EncodeWAV(utt audio.Utterance) ([]byte, error) {
	if utt.SampleRate <= 0 {
		return nil, fmt.Errorf("encode wav: invalid sample rate %d", utt.SampleRate)
	}

	data := make([]int, len(utt.PCM))
	for i, s := range utt.PCM {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: utt.SampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}

	out := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(out, utt.SampleRate, wavBitDepth, 1, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	b, err := io.ReadAll(out.Reader())
	if err != nil {
		return nil, fmt.Errorf("reading wav into memory: %w", err)
	}
	return b, nil
}
