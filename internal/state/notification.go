package state

import (
	"time"

	"storefront/internal/util"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 3 * time.Second

// Timer is the part of *time.Timer the container needs.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules f to run after d, like time.AfterFunc.
type TimerFactory func(d time.Duration, f func()) Timer

func realTimer(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// setNotificationLocked shows msg and restarts the expiry timer. Callers hold c.mu.
func (c *Container) setNotificationLocked(msg string) {
	c.stopTimerLocked()
	c.state.Notification = msg
	util.NotificationsTotal.Inc()

	gen := c.noticeGen
	c.noticeTimer = c.afterFunc(c.ttl, func() { c.expireNotification(gen) })
}

func (c *Container) stopTimerLocked() {
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
		c.noticeTimer = nil
	}
	c.noticeGen++
}

// expireNotification clears the message unless a newer one replaced it.
func (c *Container) expireNotification(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.noticeGen {
		return
	}
	c.state.Notification = ""
	c.noticeTimer = nil
}

// Notify shows a transient message.
func (c *Container) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNotificationLocked(msg)
}

// Notification returns the visible message, or "" when there is none.
func (c *Container) Notification() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Notification
}

// DismissNotification clears the message before its timer fires.
func (c *Container) DismissNotification() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.state.Notification = ""
}
