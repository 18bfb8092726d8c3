// Package timer provides the session countdown.
package timer

// Countdown counts whole seconds down to zero. It does not own a clock:
// the caller delivers one Tick per elapsed second. Every Start and Cancel
// moves to a new epoch, and ticks carrying an older epoch are ignored, so
// at most one countdown is ever live.
type Countdown struct {
	remaining int
	running   bool
	epoch     uint64
}

// Arm sets the displayed duration without starting the countdown.
func (c *Countdown) Arm(seconds int) {
	c.Cancel()
	c.remaining = seconds
}

// Start begins counting down from seconds and returns the new epoch.
func (c *Countdown) Start(seconds int) uint64 {
	c.epoch++
	c.remaining = seconds
	c.running = seconds > 0
	return c.epoch
}

// Tick consumes one second for the given epoch. ok is false when the tick
// is stale or the countdown is not running; expired is true on the tick
// that reaches zero.
func (c *Countdown) Tick(epoch uint64) (expired, ok bool) {
	if !c.running || epoch != c.epoch {
		return false, false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		return true, true
	}
	return false, true
}

// Cancel stops the countdown and invalidates outstanding ticks.
func (c *Countdown) Cancel() {
	c.running = false
	c.epoch++
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Running reports whether the countdown is live.
func (c *Countdown) Running() bool {
	return c.running
}

// Epoch returns the current epoch.
func (c *Countdown) Epoch() uint64 {
	return c.epoch
}
