package ops

import (
	"context"
	"fmt"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// Notification is a message for one user.
type Notification struct {
	UserID  string
	Title   string
	Message string
	Type    string
	Link    string
}

// Notify stores an unread notification.
func (s *Service) Notify(ctx context.Context, n Notification) (*sheetdb.Record, error) {
	if n.Type == "" {
		n.Type = "info"
	}
	return s.notifications.Create(ctx, map[string]interface{}{
		"user_id": n.UserID,
		"title":   n.Title,
		"message": n.Message,
		"type":    n.Type,
		"link":    n.Link,
		"is_read": false,
	})
}

// ListNotifications returns the caller's notifications, newest first.
// Privileged callers see every user's notifications.
func (s *Service) ListNotifications(ctx context.Context, c Caller, unreadOnly bool) ([]*sheetdb.Record, error) {
	privileged := s.IsPrivileged(c)
	return s.notifications.List(ctx, &sheetdb.ListOptions{
		Filter: func(r *sheetdb.Record) bool {
			if !privileged && !ownedBy(r, c) {
				return false
			}
			return !unreadOnly || !r.GetAsBool("is_read", false)
		},
		Sort: newestFirst,
	})
}

// ownNotification loads id and checks that c may change it.
func (s *Service) ownNotification(ctx context.Context, c Caller, id int64) (*sheetdb.Record, error) {
	rec, err := get(ctx, s.notifications, id)
	if err != nil {
		return nil, err
	}
	if !s.IsPrivileged(c) && !ownedBy(rec, c) {
		return nil, fmt.Errorf("%w: notification %d", ErrForbidden, id)
	}
	return rec, nil
}

// MarkNotificationRead rewrites only the is_read cell of the notification.
func (s *Service) MarkNotificationRead(ctx context.Context, c Caller, id int64) error {
	if _, err := s.ownNotification(ctx, c, id); err != nil {
		return err
	}
	return s.notifications.SetCell(ctx, id, "is_read", true)
}

// MarkAllNotificationsRead marks every unread notification of the caller
// and returns how many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, c Caller) (int, error) {
	return s.notifications.UpdateWhere(ctx, func(r *sheetdb.Record) bool {
		return ownedBy(r, c) && !r.GetAsBool("is_read", false)
	}, map[string]interface{}{"is_read": true})
}

// DeleteNotification removes one of the caller's notifications.
func (s *Service) DeleteNotification(ctx context.Context, c Caller, id int64) error {
	if _, err := s.ownNotification(ctx, c, id); err != nil {
		return err
	}
	return s.notifications.Delete(ctx, id)
}
