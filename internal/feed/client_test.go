package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage/memory"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedServer upgrades each connection and sends the given raw messages.
func feedServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}

		// Keep connection open until the client disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func collectMeasurements(n int) (Handler, <-chan *domain.Measurement) {
	ch := make(chan *domain.Measurement, n)
	return func(m *domain.Measurement) error {
		select {
		case ch <- m:
		default:
		}
		return nil
	}, ch
}

func TestClientConnect(t *testing.T) {
	server := feedServer(t, nil)
	defer server.Close()

	handler, _ := collectMeasurements(1)
	client, err := NewClient(context.Background(), wsURL(server), nil, handler)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestClientDeliversMeasurements(t *testing.T) {
	server := feedServer(t, []string{
		`{"experiment_id":"exp-1","variant_id":"control","kind":"LATENCY_MS","value":12.5,"recorded_at":1700000000000}`,
		`{"experiment_id":"exp-1","variant_id":"candidate","kind":"LATENCY_MS","value":7.5,"recorded_at":1700000000001}`,
	})
	defer server.Close()

	handler, ch := collectMeasurements(2)
	client, err := NewClient(context.Background(), wsURL(server), nil, handler)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	for i := 0; i < 2; i++ {
		select {
		case m := <-ch:
			if m.ExperimentID != "exp-1" {
				t.Errorf("experiment_id = %q, want exp-1", m.ExperimentID)
			}
			if m.Kind != domain.MeasurementLatencyMs {
				t.Errorf("kind = %q, want %q", m.Kind, domain.MeasurementLatencyMs)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for measurement")
		}
	}
}

func TestClientDropsMalformedMessages(t *testing.T) {
	server := feedServer(t, []string{
		`not json`,
		`{"variant_id":"control","kind":"LATENCY_MS","value":1}`,
		`{"experiment_id":"exp-1","variant_id":"control","kind":"LATENCY_MS","value":3.5}`,
	})
	defer server.Close()

	handler, ch := collectMeasurements(3)
	client, err := NewClient(context.Background(), wsURL(server), nil, handler)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	select {
	case m := <-ch:
		if m.Value != 3.5 {
			t.Errorf("value = %v, want 3.5 (malformed messages should be dropped)", m.Value)
		}
		if m.RecordedAt == 0 {
			t.Error("missing recorded_at should be filled in")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for measurement")
	}
}

func TestClientReconnects(t *testing.T) {
	var mu sync.Mutex
	connections := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		connections++
		first := connections == 1
		mu.Unlock()

		if first {
			// Drop the first connection immediately to force a reconnect.
			conn.Close()
			return
		}

		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"experiment_id":"exp-1","variant_id":"control","kind":"SUCCESS","value":1,"recorded_at":1}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	handler, ch := collectMeasurements(1)
	config := DefaultConfig()
	config.ReconnectDelay = 10 * time.Millisecond

	client, err := NewClient(context.Background(), wsURL(server), &config, handler)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	select {
	case <-ch:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for post-reconnect measurement")
	}

	if client.Reconnects() == 0 {
		t.Error("expected at least one reconnect")
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	server := feedServer(t, nil)
	defer server.Close()

	handler, _ := collectMeasurements(1)
	client, err := NewClient(context.Background(), wsURL(server), nil, handler)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestIngestorBatchesIntoStore(t *testing.T) {
	store := memory.NewMeasurementStore()
	ingestor := NewIngestor(IngestorOptions{
		Store:     store,
		BatchSize: 2,
	})
	defer ingestor.Close()

	for i := 0; i < 4; i++ {
		err := ingestor.Handle(&domain.Measurement{
			ExperimentID: "exp-1",
			VariantID:    "control",
			Kind:         domain.MeasurementLatencyMs,
			Value:        float64(i),
			RecordedAt:   int64(i),
		})
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}

	stored, err := store.GetByVariant(context.Background(), "exp-1", "control", domain.MeasurementLatencyMs)
	if err != nil {
		t.Fatalf("GetByVariant: %v", err)
	}
	if len(stored) != 4 {
		t.Errorf("stored %d measurements, want 4", len(stored))
	}
}

func TestIngestorFlushOnClose(t *testing.T) {
	store := memory.NewMeasurementStore()
	ingestor := NewIngestor(IngestorOptions{
		Store:     store,
		BatchSize: 100,
	})

	ingestor.Handle(&domain.Measurement{
		ExperimentID: "exp-1",
		VariantID:    "control",
		Kind:         domain.MeasurementSuccess,
		Value:        1,
		RecordedAt:   1,
	})
	ingestor.Close()

	stored, err := store.GetByVariant(context.Background(), "exp-1", "control", domain.MeasurementSuccess)
	if err != nil {
		t.Fatalf("GetByVariant: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("stored %d measurements, want 1", len(stored))
	}
}
