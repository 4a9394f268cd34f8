package notificationsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/notifications"

	"github.com/gin-gonic/gin"
)

type memStore struct {
	items []notifications.Notification
}

func (m *memStore) List(_ context.Context, userID uint, _ int) ([]notifications.Notification, error) {
	var out []notifications.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) UnreadCount(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, it := range m.items {
		if it.UserID == userID && !it.Read {
			n++
		}
	}
	return n, nil
}

func (m *memStore) MarkRead(_ context.Context, userID, id uint) (bool, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MarkAllRead(_ context.Context, userID uint) error {
	for i := range m.items {
		if m.items[i].UserID == userID {
			m.items[i].Read = true
		}
	}
	return nil
}

func (m *memStore) Clear(_ context.Context, userID uint) error {
	kept := m.items[:0]
	for _, n := range m.items {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	m.items = kept
	return nil
}

func router(s Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{Store: s}
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.KeyUserID, uint(1)) })
	r.GET("/notifications", h.List)
	r.POST("/notifications/:id/read", h.MarkRead)
	r.POST("/notifications/read-all", h.MarkAllRead)
	r.DELETE("/notifications", h.Clear)
	return r
}

func hit(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func unread(t *testing.T, r *gin.Engine) (int, int64) {
	t.Helper()
	var resp struct {
		Notifications []notifications.Notification `json:"notifications"`
		Unread        int64                        `json:"unread"`
	}
	if err := json.Unmarshal(hit(r, http.MethodGet, "/notifications").Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return len(resp.Notifications), resp.Unread
}

func TestNotificationFlow(t *testing.T) {
	s := &memStore{items: []notifications.Notification{
		{ID: 1, UserID: 1, Title: "a"},
		{ID: 2, UserID: 1, Title: "b"},
		{ID: 3, UserID: 2, Title: "other user"},
	}}
	r := router(s)

	if n, u := unread(t, r); n != 2 || u != 2 {
		t.Fatalf("list = %d items, %d unread", n, u)
	}

	if w := hit(r, http.MethodPost, "/notifications/1/read"); w.Code != http.StatusNoContent {
		t.Fatalf("mark read status = %d", w.Code)
	}
	if _, u := unread(t, r); u != 1 {
		t.Errorf("unread = %d, want 1", u)
	}

	if w := hit(r, http.MethodPost, "/notifications/3/read"); w.Code != http.StatusNotFound {
		t.Errorf("foreign notification status = %d, want 404", w.Code)
	}
	if w := hit(r, http.MethodPost, "/notifications/x/read"); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}

	hit(r, http.MethodPost, "/notifications/read-all")
	if _, u := unread(t, r); u != 0 {
		t.Errorf("unread after read-all = %d", u)
	}

	hit(r, http.MethodDelete, "/notifications")
	if n, _ := unread(t, r); n != 0 {
		t.Errorf("items after clear = %d", n)
	}
	if len(s.items) != 1 || s.items[0].UserID != 2 {
		t.Errorf("clear touched other users: %+v", s.items)
	}
}
