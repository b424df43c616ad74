package cli

import "sync"

// Control coordinates pause, resume and stop between the caller and the
// emulation goroutine.
type Control struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pauseReq bool
	paused   bool
	stopReq  bool
}

// NewControl creates a control in the running state.
func NewControl() *Control {
	c := &Control{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// RequestPause asks the emulation goroutine to pause and blocks until it
// has, or until the control is stopped.
func (c *Control) RequestPause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopReq || c.paused || c.pauseReq {
		return
	}
	c.pauseReq = true
	for !c.paused && !c.stopReq {
		c.cond.Wait()
	}
}

// RequestResume lets a paused emulation goroutine continue.
func (c *Control) RequestResume() {
	c.mu.Lock()
	c.pauseReq = false
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Stop tells the emulation goroutine to exit. It also releases a pending
// pause.
func (c *Control) Stop() {
	c.mu.Lock()
	c.stopReq = true
	c.pauseReq = false
	c.mu.Unlock()
	c.cond.Broadcast()
}

// CheckPause is called by the emulation goroutine between slices. It blocks
// while paused and returns false once the goroutine should exit.
func (c *Control) CheckPause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pauseReq && !c.stopReq {
		c.paused = true
		c.cond.Broadcast()
		for c.pauseReq && !c.stopReq {
			c.cond.Wait()
		}
		c.paused = false
	}
	return !c.stopReq
}

// IsPaused reports whether the emulation goroutine is parked in CheckPause.
func (c *Control) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}
