package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHubDeliversToOwnerAndAdmins(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	userID := uuid.New()
	owner := &Connection{UserID: userID, Send: make(chan []byte, 4)}
	admin := &Connection{UserID: uuid.New(), IsAdmin: true, Send: make(chan []byte, 4)}
	stranger := &Connection{UserID: uuid.New(), Send: make(chan []byte, 4)}

	hub.Register(owner)
	hub.Register(admin)
	hub.Register(stranger)

	// registration is async; give the hub loop a beat
	time.Sleep(10 * time.Millisecond)

	hub.Publish(userID, "payment.paid", map[string]int{"credits": 100})

	for _, c := range []*Connection{owner, admin} {
		select {
		case raw := <-c.Send:
			var event Event
			if err := json.Unmarshal(raw, &event); err != nil {
				t.Fatalf("bad event payload: %v", err)
			}
			if event.Type != "payment.paid" {
				t.Fatalf("expected payment.paid, got %s", event.Type)
			}
			if event.UserID != userID {
				t.Fatal("event attributed to wrong user")
			}
		case <-time.After(time.Second):
			t.Fatal("expected event delivery")
		}
	}

	select {
	case <-stranger.Send:
		t.Fatal("stranger must not receive another user's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubSkipsSlowSubscriber(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	userID := uuid.New()
	slow := &Connection{UserID: userID, Send: make(chan []byte)} // unbuffered, nobody reads

	hub.Register(slow)
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		hub.Publish(userID, "credit.adjusted", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	conn := &Connection{UserID: uuid.New(), Send: make(chan []byte, 1)}
	hub.Register(conn)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(conn)
	time.Sleep(10 * time.Millisecond)

	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	default:
		t.Fatal("expected closed send channel")
	}
}

func TestHubUnregisterReturnsAfterStop(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := &Connection{UserID: uuid.New(), Send: make(chan []byte, 1)}
	hub.Register(conn)
	time.Sleep(10 * time.Millisecond)

	hub.Stop()
	time.Sleep(10 * time.Millisecond)

	// A reader goroutine unwinding after shutdown still calls
	// Unregister; it must not hang on a hub that already returned.
	done := make(chan struct{})
	go func() {
		hub.Unregister(conn)
		hub.Register(&Connection{UserID: uuid.New(), Send: make(chan []byte, 1)})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("unregister blocked after hub stop")
	}
}
