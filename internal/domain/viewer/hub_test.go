package viewer

import (
	"encoding/json"
	"testing"
	"time"
)

func readFrame(t *testing.T, ch <-chan []byte) Frame {
	t.Helper()
	select {
	case data, ok := <-ch:
		if !ok {
			t.Fatal("send channel closed")
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	return Frame{}
}

func waitConnections(t *testing.T, hub *Hub, v *Viewer, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount(v.ID()) != n {
		if time.Now().After(deadline) {
			t.Fatalf("connection count = %d, want %d", hub.ConnectionCount(v.ID()), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubPublishesViewerFrames(t *testing.T) {
	hub := NewHub(time.Hour)
	go hub.Run()
	defer hub.Shutdown()

	v := New("garden", "Heritage Garden", Options{Publisher: hub})
	conn := &Connection{ViewerID: v.ID(), Viewer: v, Send: make(chan []byte, 16)}
	hub.Register(conn)
	waitConnections(t, hub, v, 1)

	v.CycleEnvironment()
	f := readFrame(t, conn.Send)
	if f.Type != FrameState || f.Snapshot == nil || f.Snapshot.State.Environment != EnvironmentStudio {
		t.Fatalf("unexpected frame %#v", f)
	}

	v.ToggleFullscreen()
	f = readFrame(t, conn.Send)
	if f.Type != FrameFullscreenRequest || f.Enter == nil || !*f.Enter {
		t.Fatalf("unexpected frame %#v", f)
	}

	hub.Unregister(conn)
	waitConnections(t, hub, v, 0)
}

func TestHubAdvancesRotatingViewers(t *testing.T) {
	hub := NewHub(10 * time.Millisecond)
	go hub.Run()
	defer hub.Shutdown()

	v := New("garden", "Heritage Garden", Options{Publisher: hub})
	conn := &Connection{ViewerID: v.ID(), Viewer: v, Send: make(chan []byte, 64)}
	hub.Register(conn)

	f := readFrame(t, conn.Send)
	if f.Type != FrameCamera || f.Camera == nil {
		t.Fatalf("expected camera frame, got %#v", f)
	}
}

func TestHubClosedFrameDisconnects(t *testing.T) {
	hub := NewHub(time.Hour)
	go hub.Run()
	defer hub.Shutdown()

	v := New("garden", "Heritage Garden", Options{Publisher: hub})
	conn := &Connection{ViewerID: v.ID(), Viewer: v, Send: make(chan []byte, 16)}
	hub.Register(conn)
	waitConnections(t, hub, v, 1)

	hub.Publish(v.ID(), &Frame{Type: FrameClosed})

	if f := readFrame(t, conn.Send); f.Type != FrameClosed {
		t.Fatalf("unexpected frame %#v", f)
	}
	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not dropped")
	}
}
