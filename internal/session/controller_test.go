package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcriber"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
)

const (
	testSampleRate = 16000
	testFrame      = 1600 // 100ms
)

func silentFrames(n int) [][]int16 {
	out := make([][]int16, n)
	for i := range out {
		out[i] = make([]int16, testFrame)
	}
	return out
}

func loudFrames(n int) [][]int16 {
	out := make([][]int16, n)
	for i := range out {
		f := make([]int16, testFrame)
		for j := range f {
			f[j] = 3000
		}
		out[i] = f
	}
	return out
}

// utterances returns n phrases of 500ms speech followed by 1s of silence.
func utterances(n int) [][]int16 {
	var out [][]int16
	for i := 0; i < n; i++ {
		out = append(out, loudFrames(5)...)
		out = append(out, silentFrames(10)...)
	}
	return out
}

type mockSource struct {
	frames chan []int16
	mic    *mockMicrophone
	once   sync.Once
}

func (s *mockSource) Frames() <-chan []int16 { return s.frames }
func (s *mockSource) SampleRate() int        { return testSampleRate }
func (s *mockSource) Close() error {
	s.once.Do(func() { s.mic.open.Add(-1) })
	return nil
}

type mockMicrophone struct {
	script     [][]int16
	endOfAudio bool
	openErr    error

	open    atomic.Int32
	maxOpen atomic.Int32
	opened  atomic.Int32
}

func (m *mockMicrophone) Open(_ context.Context) (audio.Source, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	n := m.open.Add(1)
	m.opened.Add(1)
	for {
		peak := m.maxOpen.Load()
		if n <= peak || m.maxOpen.CompareAndSwap(peak, n) {
			break
		}
	}
	ch := make(chan []int16, len(m.script))
	for _, f := range m.script {
		ch <- f
	}
	if m.endOfAudio {
		close(ch)
	}
	return &mockSource{frames: ch, mic: m}, nil
}

type mockTranscriber struct {
	calls atomic.Int32
	fn    func(ctx context.Context, call int) (string, error)
}

func (m *mockTranscriber) Transcribe(ctx context.Context, _ audio.Utterance) (string, error) {
	call := int(m.calls.Add(1))
	return m.fn(ctx, call)
}

type memoryStore struct {
	mu    sync.Mutex
	lines []transcript.Line
}

func (s *memoryStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	return nil
}

func (s *memoryStore) OpenAppender() (transcript.Appender, error) { return &memoryAppender{store: s}, nil }
func (s *memoryStore) Path() string                               { return "memory" }

func (s *memoryStore) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return "", transcript.ErrNotFound
	}
	var b strings.Builder
	for _, l := range s.lines {
		b.WriteString(l.String())
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *memoryStore) snapshot() []transcript.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transcript.Line(nil), s.lines...)
}

type memoryAppender struct {
	store  *memoryStore
	closed bool
}

func (a *memoryAppender) Append(_ context.Context, line transcript.Line) error {
	if a.closed {
		return errors.New("appender closed")
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	a.store.lines = append(a.store.lines, line)
	return nil
}

func (a *memoryAppender) Close() error {
	a.closed = true
	return nil
}

type mockRepository struct {
	// completeGate, when set, holds CompleteSession until it is closed.
	completeGate chan struct{}

	mu         sync.Mutex
	created    int
	completed  []string
	inserts    []repository.InsertUtteranceInput
	runningErr error
	orphan     *repository.Session
}

func (m *mockRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	return &repository.Session{ID: "session-" + input.SpeakerA, StartedAt: input.StartedAt, Status: repository.SessionStatusRunning}, nil
}

func (m *mockRepository) CompleteSession(_ context.Context, input repository.CompleteSessionInput) error {
	if m.completeGate != nil {
		<-m.completeGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, input.SessionID)
	return nil
}

func (m *mockRepository) GetRunningSession(context.Context) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orphan, m.runningErr
}

func (m *mockRepository) InsertUtterance(_ context.Context, input repository.InsertUtteranceInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts = append(m.inserts, input)
	return nil
}

func (m *mockRepository) SaveSummary(_ context.Context, input repository.SaveSummaryInput) (*repository.Summary, error) {
	return &repository.Summary{Content: input.Content}, nil
}

type harness struct {
	ctrl   *Controller
	mic    *mockMicrophone
	stt    *mockTranscriber
	store  *memoryStore
	repo   *mockRepository
	events chan Event
}

func newHarness(t *testing.T, mic *mockMicrophone, fn func(ctx context.Context, call int) (string, error)) *harness {
	t.Helper()
	h := &harness{
		mic:    mic,
		stt:    &mockTranscriber{fn: fn},
		store:  &memoryStore{},
		repo:   &mockRepository{},
		events: make(chan Event, 64),
	}
	cfg := ControllerConfig{
		ListenTimeout:   time.Second,
		PhraseTimeLimit: 5 * time.Second,
		StopGracePeriod: time.Second,
		Listener:        audio.DefaultListenerConfig(),
	}
	h.ctrl = NewController(cfg, NewState("Doctor", "Patient"), mic, h.stt, h.store, h.repo)
	fixed := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	h.ctrl.now = func() time.Time { return fixed }
	h.ctrl.SetObserver(func(e Event) { h.events <- e })
	t.Cleanup(func() { _ = h.ctrl.Shutdown() })
	return h
}

func (h *harness) waitEvents(t *testing.T, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case e := <-h.events:
			out = append(out, e)
		case <-timeout:
			t.Fatalf("timed out waiting for %d events, got %d: %+v", n, len(out), out)
		}
	}
	return out
}

func TestController_WritesOneLinePerRecognizedUtterance(t *testing.T) {
	mic := &mockMicrophone{script: utterances(3)}
	h := newHarness(t, mic, func(_ context.Context, call int) (string, error) {
		switch call {
		case 1:
			return "How are you feeling?", nil
		case 2:
			return "", transcriber.ErrUnrecognized
		default:
			return "A bit tired.", nil
		}
	})

	msg, err := h.ctrl.Start(context.Background())
	if err != nil || msg != MessageStarted {
		t.Fatalf("start: msg=%q err=%v", msg, err)
	}
	events := h.waitEvents(t, 3)
	if events[1].Kind != EventUnrecognized || events[1].Speaker != "Doctor" {
		t.Fatalf("expected unrecognized event for Doctor, got %+v", events[1])
	}
	if UnrecognizedMessage(events[1].Speaker) != "Could not understand Doctor" {
		t.Fatalf("unexpected unrecognized message")
	}

	if msg, _ := h.ctrl.Stop(context.Background()); msg != MessageStopped {
		t.Fatalf("unexpected stop message: %q", msg)
	}

	lines := h.store.snapshot()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}
	got, _ := h.store.Read()
	want := "2024-01-01 10:00:00 - Doctor: How are you feeling?\n2024-01-01 10:00:00 - Doctor: A bit tired.\n"
	if got != want {
		t.Fatalf("unexpected transcript:\n%s", got)
	}
	if mic.open.Load() != 0 {
		t.Fatalf("microphone should be released after stop")
	}
}

func TestController_SpeakerIsReadWhenRecognitionCompletes(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	mic := &mockMicrophone{script: utterances(2)}
	h := newHarness(t, mic, func(_ context.Context, call int) (string, error) {
		if call == 1 {
			close(entered)
			<-release
			return "first", nil
		}
		return "second", nil
	})

	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-entered
	if msg := h.ctrl.SwitchSpeaker(); msg != "Switched to Patient" {
		t.Fatalf("unexpected switch message: %q", msg)
	}
	close(release)
	h.waitEvents(t, 2)
	_, _ = h.ctrl.Stop(context.Background())

	for _, l := range h.store.snapshot() {
		if l.Speaker != "Patient" {
			t.Fatalf("expected every line attributed to Patient, got %+v", l)
		}
	}
}

func TestController_SwitchDoesNotRewriteExistingLines(t *testing.T) {
	mic := &mockMicrophone{script: utterances(1)}
	h := newHarness(t, mic, func(context.Context, int) (string, error) { return "hello", nil })

	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.waitEvents(t, 1)
	h.ctrl.SwitchSpeaker()
	h.ctrl.SwitchSpeaker()
	h.ctrl.SwitchSpeaker()
	_, _ = h.ctrl.Stop(context.Background())

	lines := h.store.snapshot()
	if len(lines) != 1 || lines[0].Speaker != "Doctor" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if h.ctrl.State().Speaker() != "Patient" {
		t.Fatalf("expected Patient after three switches")
	}
}

func TestController_StartAndStopAreIdempotent(t *testing.T) {
	mic := &mockMicrophone{}
	h := newHarness(t, mic, func(context.Context, int) (string, error) { return "", nil })

	if msg, _ := h.ctrl.Stop(context.Background()); msg != MessageNotRunning {
		t.Fatalf("unexpected stop message: %q", msg)
	}
	if msg, _ := h.ctrl.Start(context.Background()); msg != MessageStarted {
		t.Fatalf("unexpected start message: %q", msg)
	}
	if msg, _ := h.ctrl.Start(context.Background()); msg != MessageAlreadyRunning {
		t.Fatalf("unexpected second start message: %q", msg)
	}
	if mic.opened.Load() != 1 {
		t.Fatalf("microphone opened %d times", mic.opened.Load())
	}
	if msg, _ := h.ctrl.Stop(context.Background()); msg != MessageStopped {
		t.Fatalf("unexpected stop message: %q", msg)
	}
	if msg, _ := h.ctrl.Stop(context.Background()); msg != MessageNotRunning {
		t.Fatalf("unexpected second stop message: %q", msg)
	}
	if h.ctrl.State().Active() {
		t.Fatalf("state should be inactive")
	}
}

func TestController_ConcurrentStartStopKeepsOneLoop(t *testing.T) {
	mic := &mockMicrophone{}
	h := newHarness(t, mic, func(context.Context, int) (string, error) { return "", nil })

	const callers = 50
	gate := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-gate
			if _, err := h.ctrl.Start(context.Background()); err != nil {
				t.Errorf("start: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			<-gate
			if _, err := h.ctrl.Stop(context.Background()); err != nil {
				t.Errorf("stop: %v", err)
			}
		}()
	}
	close(gate)
	wg.Wait()

	_, _ = h.ctrl.Stop(context.Background())
	h.ctrl.Wait()

	if peak := mic.maxOpen.Load(); peak > 1 {
		t.Fatalf("expected at most one live capture loop, saw %d", peak)
	}
	if open := mic.open.Load(); open != 0 {
		t.Fatalf("expected microphone released, %d sources open", open)
	}
	if h.ctrl.Active() {
		t.Fatalf("state should be inactive after the final stop")
	}
}

func TestController_StopDoesNotWaitForSessionArchive(t *testing.T) {
	mic := &mockMicrophone{}
	h := newHarness(t, mic, func(context.Context, int) (string, error) { return "", nil })
	h.repo.completeGate = make(chan struct{})

	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	begin := time.Now()
	if msg, _ := h.ctrl.Stop(context.Background()); msg != MessageStopped {
		t.Fatalf("unexpected stop message: %q", msg)
	}
	if elapsed := time.Since(begin); elapsed >= h.ctrl.cfg.StopGracePeriod {
		t.Fatalf("stop took %s, expected it to return before the grace period", elapsed)
	}
	if mic.open.Load() != 0 {
		t.Fatalf("microphone should be released while the archive is still writing")
	}
	h.ctrl.mu.Lock()
	draining := h.ctrl.draining
	h.ctrl.mu.Unlock()
	if draining != nil {
		t.Fatalf("stop should not leave a draining loop behind")
	}

	waited := make(chan struct{})
	go func() {
		h.ctrl.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		t.Fatalf("wait returned before the session end was archived")
	case <-time.After(50 * time.Millisecond):
	}

	close(h.repo.completeGate)
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatalf("wait never returned")
	}
	h.repo.mu.Lock()
	defer h.repo.mu.Unlock()
	if len(h.repo.completed) != 1 || h.repo.completed[0] != "session-Doctor" {
		t.Fatalf("unexpected completions: %v", h.repo.completed)
	}
}

func TestController_RestartWaitsForDrainingLoop(t *testing.T) {
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	mic := &mockMicrophone{script: utterances(1)}
	h := newHarness(t, mic, func(context.Context, int) (string, error) {
		entered <- struct{}{}
		<-release
		return "late", nil
	})
	h.ctrl.cfg.StopGracePeriod = 20 * time.Millisecond

	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-entered
	if msg, _ := h.ctrl.Stop(context.Background()); msg != MessageStopped {
		t.Fatalf("unexpected stop message: %q", msg)
	}

	started := make(chan string)
	go func() {
		msg, _ := h.ctrl.Start(context.Background())
		started <- msg
	}()

	select {
	case msg := <-started:
		t.Fatalf("start returned %q while previous loop was draining", msg)
	case <-time.After(50 * time.Millisecond):
	}
	if mic.opened.Load() != 1 {
		t.Fatalf("second microphone opened before the first loop exited")
	}

	close(release)
	select {
	case msg := <-started:
		if msg != MessageStarted {
			t.Fatalf("unexpected restart message: %q", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("restart never completed")
	}
	_, _ = h.ctrl.Stop(context.Background())

	if peak := mic.maxOpen.Load(); peak != 1 {
		t.Fatalf("expected at most one live capture loop, saw %d", peak)
	}
}

func TestController_LoopEndingOnItsOwnAllowsRestart(t *testing.T) {
	mic := &mockMicrophone{script: silentFrames(3), endOfAudio: true}
	h := newHarness(t, mic, func(context.Context, int) (string, error) { return "", nil })

	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	events := h.waitEvents(t, 1)
	if events[0].Kind != EventLoopEnded || !errors.Is(events[0].Err, audio.ErrSourceClosed) {
		t.Fatalf("expected loop ended event, got %+v", events[0])
	}
	h.ctrl.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for h.ctrl.State().Active() {
		if time.Now().After(deadline) {
			t.Fatalf("state stayed active after loop exited")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if msg, _ := h.ctrl.Start(context.Background()); msg != MessageStarted {
		t.Fatalf("unexpected restart message: %q", msg)
	}
}

func TestController_MicrophoneFailureLeavesStateInactive(t *testing.T) {
	mic := &mockMicrophone{openErr: errors.New("no pulse server")}
	h := newHarness(t, mic, func(context.Context, int) (string, error) { return "", nil })

	if _, err := h.ctrl.Start(context.Background()); err == nil {
		t.Fatalf("expected start error")
	}
	if h.ctrl.State().Active() {
		t.Fatalf("state should stay inactive")
	}
}

func TestController_ServiceErrorsDoNotStopTheLoop(t *testing.T) {
	mic := &mockMicrophone{script: utterances(2)}
	h := newHarness(t, mic, func(_ context.Context, call int) (string, error) {
		if call == 1 {
			return "", &transcriber.ServiceError{Op: "recognize", Err: errors.New("quota exceeded")}
		}
		return "still here", nil
	})

	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	events := h.waitEvents(t, 2)
	if events[0].Kind != EventServiceError || events[1].Kind != EventLine {
		t.Fatalf("unexpected events: %+v", events)
	}
	_, _ = h.ctrl.Stop(context.Background())
}

func TestController_ArchivesSessionAndUtterances(t *testing.T) {
	mic := &mockMicrophone{script: utterances(2)}
	h := newHarness(t, mic, func(context.Context, int) (string, error) { return "hello", nil })
	h.repo.orphan = &repository.Session{ID: "orphan"}

	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.waitEvents(t, 2)
	_, _ = h.ctrl.Stop(context.Background())
	h.ctrl.Wait()

	h.repo.mu.Lock()
	defer h.repo.mu.Unlock()
	if h.repo.created != 1 || len(h.repo.inserts) != 2 {
		t.Fatalf("unexpected archive calls: created=%d inserts=%d", h.repo.created, len(h.repo.inserts))
	}
	if h.repo.inserts[1].UtteranceIndex != 1 || h.repo.inserts[1].SessionID != "session-Doctor" {
		t.Fatalf("unexpected insert: %+v", h.repo.inserts[1])
	}
	if len(h.repo.completed) != 2 || h.repo.completed[0] != "orphan" || h.repo.completed[1] != "session-Doctor" {
		t.Fatalf("unexpected completions: %v", h.repo.completed)
	}
}

func TestState_SwitchSpeakerToggles(t *testing.T) {
	s := NewState("Doctor", "Patient")
	if s.Speaker() != "Doctor" {
		t.Fatalf("expected Doctor first")
	}
	if got := s.SwitchSpeaker(); got != "Patient" {
		t.Fatalf("expected Patient, got %q", got)
	}
	if got := s.SwitchSpeaker(); got != "Doctor" {
		t.Fatalf("expected Doctor, got %q", got)
	}
}
