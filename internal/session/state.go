package session

import "sync"

// State is the shared session state. The capture loop and the control
// handlers hold the same *State; every field is read and written under mu.
type State struct {
	mu       sync.Mutex
	active   bool
	speakers [2]string
	current  int
}

// NewState returns an inactive state with speakerA current.
func NewState(speakerA, speakerB string) *State {
	return &State{speakers: [2]string{speakerA, speakerB}}
}

func (s *State) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *State) Speaker() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speakers[s.current]
}

func (s *State) Speakers() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speakers[0], s.speakers[1]
}

// SwitchSpeaker toggles the current speaker and returns the new label.
func (s *State) SwitchSpeaker() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = 1 - s.current
	return s.speakers[s.current]
}

// activate reports whether the state moved from inactive to active.
func (s *State) activate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false
	}
	s.active = true
	return true
}

// deactivate reports whether the state moved from active to inactive.
func (s *State) deactivate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.active = false
	return true
}
