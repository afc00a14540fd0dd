package handlers

import (
	"net/http"

	"evsense/backend/services/dashboard-service/internal/models"
)

// NotificationFeed is the notification center.
type NotificationFeed interface {
	List() []models.Notification
	Dismiss(id string) bool
}

// NewNotificationsHandler serves GET /api/notifications and DELETE /api/notifications?id=.
func NewNotificationsHandler(feed NotificationFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, feed.List())
		case http.MethodDelete:
			id := r.URL.Query().Get("id")
			if id == "" {
				writeError(w, http.StatusBadRequest, "id is required")
				return
			}
			if !feed.Dismiss(id) {
				writeError(w, http.StatusNotFound, "notification not found")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}
