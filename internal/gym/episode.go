package gym

import "log/slog"

// PostTerminalWarning is sent to the Warner on the first step after done.
const PostTerminalWarning = "step called after termination without reset; " +
	"call reset once done is returned, further steps are undefined"

// Warner receives non-fatal cautions. *slog.Logger satisfies it.
type Warner interface {
	Warn(msg string, args ...any)
}

// Episode tracks the step counter and the steps taken past termination.
type Episode struct {
	warn Warner

	elapsed    int
	terminated bool
	beyondDone int
}

func NewEpisode(warn Warner) *Episode {
	if warn == nil {
		warn = slog.Default()
	}
	return &Episode{warn: warn}
}

func (e *Episode) Reset() {
	e.elapsed = 0
	e.terminated = false
	e.beyondDone = 0
}

// Advance counts one macro step.
func (e *Episode) Advance() int {
	e.elapsed++
	return e.elapsed
}

func (e *Episode) Elapsed() int {
	return e.elapsed
}

// Terminated reports whether a previous step already returned done.
func (e *Episode) Terminated() bool {
	return e.terminated
}

// AfterDone records a step taken after termination and warns on the
// first one.
func (e *Episode) AfterDone() {
	if e.beyondDone == 0 {
		e.warn.Warn(PostTerminalWarning, "steps_beyond_done", e.beyondDone, "elapsed_steps", e.elapsed)
	}
	e.beyondDone++
}

// Finish marks the episode terminated when done is set for the first time.
func (e *Episode) Finish(done bool) {
	if done && !e.terminated {
		e.terminated = true
		e.beyondDone = 0
	}
}

// StepsBeyondDone returns the post-terminal step count; ok is false until
// the episode has terminated.
func (e *Episode) StepsBeyondDone() (n int, ok bool) {
	return e.beyondDone, e.terminated
}
