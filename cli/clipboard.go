package cli

import (
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// Clipboard is the system clipboard or a stand-in for it.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the desktop clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// clipTimer clears the clipboard once after each copy. A newer copy
// replaces the pending clear. A zero delay never clears.
type clipTimer struct {
	clip  Clipboard
	after time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func newClipTimer(c Clipboard, after time.Duration) *clipTimer {
	return &clipTimer{clip: c, after: after}
}

func (c *clipTimer) Copy(text string) error {
	if err := c.clip.WriteAll(text); err != nil {
		return err
	}
	if c.after <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.after, func() {
		_ = c.clip.WriteAll("")
	})
	return nil
}

// Flush runs a pending clear now.
func (c *clipTimer) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil && c.timer.Stop() {
		_ = c.clip.WriteAll("")
	}
	c.timer = nil
}
