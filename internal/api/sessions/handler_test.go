package sessionsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/booking"
	"membership-app/internal/infra/queue"

	"github.com/gin-gonic/gin"
)

// memSlots mirrors the conditional update of booking.Service.
type memSlots struct {
	mu    sync.Mutex
	slots map[uint]*booking.ExpertSlot
}

func (m *memSlots) ListUpcoming(_ context.Context, now time.Time, onlyOpen bool) ([]booking.ExpertSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.ExpertSlot
	for _, s := range m.slots {
		if s.StartsAt.After(now) && (!onlyOpen || s.Available()) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSlots) ListForUser(_ context.Context, userID uint) ([]booking.ExpertSlot, error) {
	return nil, nil
}

func (m *memSlots) Book(_ context.Context, slotID, userID uint, now time.Time) (booking.ExpertSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok {
		return booking.ExpertSlot{}, booking.ErrSlotNotFound
	}
	if !s.StartsAt.After(now) {
		return booking.ExpertSlot{}, booking.ErrSlotPast
	}
	if !s.Available() {
		return booking.ExpertSlot{}, booking.ErrSlotTaken
	}
	uid := userID
	s.BookedByUserID = &uid
	s.BookedAt = &now
	return *s, nil
}

func (m *memSlots) Cancel(context.Context, uint, uint, time.Time) error { return booking.ErrNotBooker }

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.SessionBookedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, q string, event any) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if q == queue.SessionsBookedQueue {
		f.events = append(f.events, event.(queue.SessionBookedEvent))
	}
	return nil
}

var now = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newFixture() (*memSlots, *fakePublisher, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	slots := &memSlots{slots: map[uint]*booking.ExpertSlot{
		1: {ID: 1, ExpertName: "Maya", Topic: "Pricing", StartsAt: now.Add(24 * time.Hour), DurationMin: 30},
		2: {ID: 2, ExpertName: "Maya", Topic: "Pricing", StartsAt: now.Add(-time.Hour), DurationMin: 30},
	}}
	pub := &fakePublisher{}
	h := &Handler{Slots: slots, Events: pub, Now: func() time.Time { return now }}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		id, _ := strconv.Atoi(c.GetHeader("X-User"))
		c.Set(middleware.KeyUserID, uint(id))
	})
	r.GET("/sessions/slots", h.ListSlots)
	r.POST("/sessions/slots/:id/book", h.Book)
	r.DELETE("/sessions/slots/:id/book", h.Cancel)
	return slots, pub, r
}

func call(r *gin.Engine, method, path, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookPublishesEvent(t *testing.T) {
	_, pub, r := newFixture()

	w := call(r, http.MethodPost, "/sessions/slots/1/book", "5")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Slot SlotDTO `json:"slot"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Slot.BookedByMe || resp.Slot.Available {
		t.Errorf("unexpected slot %+v", resp.Slot)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.SlotID != 1 || ev.UserID != 5 || ev.StartsAt != "2026-10-16T09:00:00Z" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestBookConflicts(t *testing.T) {
	_, pub, r := newFixture()

	tests := []struct {
		name string
		path string
		user string
		want int
	}{
		{"first booking", "/sessions/slots/1/book", "5", http.StatusCreated},
		{"already taken", "/sessions/slots/1/book", "6", http.StatusConflict},
		{"in the past", "/sessions/slots/2/book", "5", http.StatusConflict},
		{"unknown", "/sessions/slots/99/book", "5", http.StatusNotFound},
		{"bad id", "/sessions/slots/abc/book", "5", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := call(r, http.MethodPost, tt.path, tt.user); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
	if len(pub.events) != 1 {
		t.Errorf("published %d events, want 1", len(pub.events))
	}
}

func TestConcurrentBookingHasOneWinner(t *testing.T) {
	_, _, r := newFixture()

	var wg sync.WaitGroup
	codes := make(chan int, 10)
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			codes <- call(r, http.MethodPost, "/sessions/slots/1/book", strconv.Itoa(user)).Code
		}(i)
	}
	wg.Wait()
	close(codes)

	created := 0
	for code := range codes {
		if code == http.StatusCreated {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("%d bookings succeeded, want 1", created)
	}
}

func TestBookSurvivesPublishFailure(t *testing.T) {
	_, pub, r := newFixture()
	pub.err = errors.New("broker down")
	if w := call(r, http.MethodPost, "/sessions/slots/1/book", "5"); w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
}

func TestListOpenSlots(t *testing.T) {
	_, _, r := newFixture()
	w := call(r, http.MethodGet, "/sessions/slots?open=true", "5")
	var resp struct {
		Slots []SlotDTO `json:"slots"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Slots) != 1 || resp.Slots[0].ID != 1 {
		t.Errorf("unexpected slots %+v", resp.Slots)
	}
}

func TestCancelNotBooker(t *testing.T) {
	_, _, r := newFixture()
	if w := call(r, http.MethodDelete, "/sessions/slots/1/book", "5"); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
