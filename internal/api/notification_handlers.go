package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/devang-458/HealthIQ/internal/models"
)

const defaultNotificationLimit = 50

// listNotificationsHandler returns the caller's notifications newest first,
// alongside the current unread count.
func (s *Server) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	notifications, err := s.st.ListNotifications(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		slog.Error("Server.listNotificationsHandler: listing failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch notifications"))
		return
	}

	unread, err := s.st.CountUnreadNotifications(r.Context(), userID)
	if err != nil {
		slog.Error("Server.listNotificationsHandler: unread count failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch notifications"))
		return
	}

	writeJSON(w, http.StatusOK, models.Success(map[string]any{
		"notifications": notifications,
		"unread_count":  unread,
	}))
}

func (s *Server) readNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	id := r.PathValue("id")

	if err := s.st.MarkNotificationRead(r.Context(), userID, id); err != nil {
		if errors.Is(err, models.ErrNotificationNotFound) {
			writeJSON(w, http.StatusNotFound, models.Error("Notification not found"))
			return
		}
		slog.Error("Server.readNotificationHandler: mark read failed", "error", err, "userID", userID, "id", id)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to update notification"))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessWithMessage("Notification marked as read", nil))
}

func (s *Server) readAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	updated, err := s.st.MarkAllNotificationsRead(r.Context(), userID)
	if err != nil {
		slog.Error("Server.readAllNotificationsHandler: mark all read failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to update notifications"))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessWithMessage("All notifications marked as read", map[string]int{
		"updated": updated,
	}))
}

func (s *Server) deleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	id := r.PathValue("id")

	if err := s.st.DeleteNotification(r.Context(), userID, id); err != nil {
		if errors.Is(err, models.ErrNotificationNotFound) {
			writeJSON(w, http.StatusNotFound, models.Error("Notification not found"))
			return
		}
		slog.Error("Server.deleteNotificationHandler: delete failed", "error", err, "userID", userID, "id", id)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to delete notification"))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessWithMessage("Notification deleted", nil))
}
