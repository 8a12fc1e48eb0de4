package audio

import (
	"context"
	"math"
	"time"
)

// ListenerConfig tunes the energy-based speech detector.
type ListenerConfig struct {
	// EnergyThreshold is the RMS level above which a frame counts as speech.
	EnergyThreshold float64
	// DynamicEnergy lets the threshold follow ambient noise while waiting for speech.
	DynamicEnergy  bool
	DynamicDamping float64
	DynamicRatio   float64
	// PauseThreshold is the run of silence that ends a phrase.
	PauseThreshold time.Duration
	// PhraseThreshold is the minimum speech needed to keep a phrase; shorter
	// bursts are treated as noise.
	PhraseThreshold time.Duration
	// NonSpeakingDuration is the silence kept on either side of a phrase.
	NonSpeakingDuration time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		EnergyThreshold:     300,
		DynamicEnergy:       true,
		DynamicDamping:      0.15,
		DynamicRatio:        1.5,
		PauseThreshold:      800 * time.Millisecond,
		PhraseThreshold:     300 * time.Millisecond,
		NonSpeakingDuration: 500 * time.Millisecond,
	}
}

// Listener cuts a continuous Source into utterances. It is not safe for
// concurrent use; the transcription loop owns it.
type Listener struct {
	src       Source
	cfg       ListenerConfig
	threshold float64
	now       func() time.Time
}

func NewListener(src Source, cfg ListenerConfig) *Listener {
	return &Listener{
		src:       src,
		cfg:       cfg,
		threshold: cfg.EnergyThreshold,
		now:       time.Now,
	}
}

func (l *Listener) Threshold() float64 {
	return l.threshold
}

// Calibrate reads d worth of audio and moves the energy threshold towards the
// ambient level.
func (l *Listener) Calibrate(ctx context.Context, d time.Duration) error {
	var elapsed time.Duration
	for elapsed < d {
		frame, err := l.next(ctx)
		if err != nil {
			return err
		}
		fd := l.frameDuration(frame)
		elapsed += fd
		l.adapt(rms(frame), fd)
	}
	return nil
}

// Listen blocks until one phrase is captured. It returns ErrWaitTimeout when
// no speech starts within timeout, and cuts the phrase at phraseLimit. Zero
// disables either bound.
func (l *Listener) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (Utterance, error) {
	var waited time.Duration
	for {
		preroll, err := l.waitForOnset(ctx, timeout, &waited)
		if err != nil {
			return Utterance{}, err
		}
		capturedAt := l.now()

		onset := preroll[len(preroll)-1]
		frames := append([][]int16(nil), preroll...)
		phraseDur := l.frameDuration(onset)
		speechDur := phraseDur
		var pauseDur time.Duration
		for phraseLimit <= 0 || phraseDur < phraseLimit {
			frame, err := l.next(ctx)
			if err != nil {
				return Utterance{}, err
			}
			fd := l.frameDuration(frame)
			frames = append(frames, frame)
			phraseDur += fd
			if rms(frame) > l.threshold {
				pauseDur = 0
				speechDur += fd
			} else {
				pauseDur += fd
			}
			if pauseDur > l.cfg.PauseThreshold {
				break
			}
		}

		if speechDur < l.cfg.PhraseThreshold {
			continue
		}

		frames = l.trimTrailingSilence(frames, pauseDur)
		return Utterance{
			PCM:        flatten(frames),
			SampleRate: l.src.SampleRate(),
			CapturedAt: capturedAt,
		}, nil
	}
}

// waitForOnset returns the buffered lead-in frames ending with the first frame
// above the threshold.
func (l *Listener) waitForOnset(ctx context.Context, timeout time.Duration, waited *time.Duration) ([][]int16, error) {
	var (
		preroll    [][]int16
		prerollDur time.Duration
	)
	for {
		frame, err := l.next(ctx)
		if err != nil {
			return nil, err
		}
		fd := l.frameDuration(frame)
		*waited += fd
		if timeout > 0 && *waited > timeout {
			return nil, ErrWaitTimeout
		}

		preroll = append(preroll, frame)
		prerollDur += fd
		for len(preroll) > 1 && prerollDur > l.cfg.NonSpeakingDuration {
			prerollDur -= l.frameDuration(preroll[0])
			preroll = preroll[1:]
		}

		energy := rms(frame)
		if energy > l.threshold {
			return preroll, nil
		}
		if l.cfg.DynamicEnergy {
			l.adapt(energy, fd)
		}
	}
}

func (l *Listener) trimTrailingSilence(frames [][]int16, pauseDur time.Duration) [][]int16 {
	excess := pauseDur - l.cfg.NonSpeakingDuration
	for excess > 0 && len(frames) > 1 {
		last := frames[len(frames)-1]
		excess -= l.frameDuration(last)
		frames = frames[:len(frames)-1]
	}
	return frames
}

func (l *Listener) adapt(energy float64, fd time.Duration) {
	damping := math.Pow(l.cfg.DynamicDamping, fd.Seconds())
	target := energy * l.cfg.DynamicRatio
	l.threshold = l.threshold*damping + target*(1-damping)
}

func (l *Listener) next(ctx context.Context) ([]int16, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case frame, ok := <-l.src.Frames():
		if !ok {
			return nil, ErrSourceClosed
		}
		return frame, nil
	}
}

func (l *Listener) frameDuration(frame []int16) time.Duration {
	return samplesDuration(len(frame), l.src.SampleRate())
}

func rms(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func flatten(frames [][]int16) []int16 {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]int16, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
