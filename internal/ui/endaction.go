package ui

// EndAction is what a front-end does when the track runs out.
type EndAction int

const (
	// EndQuit closes the player and exits.
	EndQuit EndAction = iota
	// EndLoop rewinds the track and keeps the rings running.
	EndLoop
)

// Toggle flips between quitting and looping.
func (a EndAction) Toggle() EndAction {
	if a == EndLoop {
		return EndQuit
	}
	return EndLoop
}

func (a EndAction) String() string {
	if a == EndLoop {
		return "loop"
	}
	return "quit"
}

// Badge is the status line marker, empty unless looping.
func (a EndAction) Badge() string {
	if a == EndLoop {
		return "[loop]"
	}
	return ""
}
