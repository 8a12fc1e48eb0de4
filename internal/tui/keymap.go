package tui

// Key bindings handled in handleKey.
const (
	keyToggle  = " "
	keySwitch  = "s"
	keySummary = "g"
	keyQuit    = "q"
	keyCtrlC   = "ctrl+c"
	keyUp      = "up"
	keyDown    = "down"
	keyK       = "k"
	keyJ       = "j"
)
