// Package notify keeps the driver's notification feed.
package notify

import (
	"sync"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"evsense/backend/services/dashboard-service/internal/models"
)

const (
	defaultCapacity = 50
	justNow         = "Just now"
	welcomeMessage  = "Welcome to EV Sense!"
)

// Center is a newest-first notification list. It is safe for concurrent use.
type Center struct {
	mu       sync.RWMutex
	items    []models.Notification
	capacity int
	clock    clock.PassiveClock
	onAdd    func(models.Notification)
}

// NewCenter seeds the feed with the welcome entry. onAdd, if set, sees every new notification.
func NewCenter(clk clock.PassiveClock, capacity int, onAdd func(models.Notification)) *Center {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	c := &Center{capacity: capacity, clock: clk, onAdd: onAdd}
	c.items = []models.Notification{c.build(models.NotificationInfo, "", welcomeMessage)}
	return c
}

func (c *Center) build(kind, title, message string) models.Notification {
	return models.Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Title:     title,
		Message:   message,
		Time:      justNow,
		CreatedAt: c.clock.Now().UTC(),
	}
}

// Notify prepends a notification and returns it.
func (c *Center) Notify(kind, title, message string) models.Notification {
	n := c.build(kind, title, message)

	c.mu.Lock()
	c.items = append([]models.Notification{n}, c.items...)
	if len(c.items) > c.capacity {
		c.items = c.items[:c.capacity]
	}
	onAdd := c.onAdd
	c.mu.Unlock()

	if onAdd != nil {
		onAdd(n)
	}
	return n
}

// SetOnAdd replaces the add hook.
func (c *Center) SetOnAdd(fn func(models.Notification)) {
	c.mu.Lock()
	c.onAdd = fn
	c.mu.Unlock()
}

// List returns a copy of the feed, newest first.
func (c *Center) List() []models.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Notification(nil), c.items...)
}

// Dismiss removes a notification by id.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}
