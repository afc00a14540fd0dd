package models

import "time"

// Notification kinds.
const (
	NotificationInfo        = "info"
	NotificationWarning     = "warning"
	NotificationDestructive = "destructive"
	NotificationSuccess     = "success"
)

// Notification is one toast entry in the notification center.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}
