package trainerapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/caffeineism/dizzybeam/internal/trainer"
)

func newTestServer(t *testing.T, hub *Hub) (*httptest.Server, *trainer.Service) {
	t.Helper()
	base := trainer.Config{
		Population:   4,
		Generations:  2,
		Placements:   30,
		MutationRate: 0.15,
		MutationStep: 0.1,
		Workers:      2,
		Seed:         1,
		Logger:       zerolog.Nop(),
	}
	var publish func(trainer.GenerationReport)
	if hub != nil {
		publish = hub.Publish
	}
	svc := trainer.NewService(base, publish)
	srv := httptest.NewServer(NewRouter(zerolog.Nop(), svc, hub))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop("test cleanup")
	})
	return srv, svc
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode: %v", method, url, err)
	}
	return resp, out
}

func TestHealthAndStatus(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/trainer/health", "")
	if resp.StatusCode != http.StatusOK || body["ok"] != true || body["running"] != false {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/api/trainer/status", "")
	if resp.StatusCode != http.StatusOK || body["phase"] != trainer.PhaseIdle {
		t.Errorf("status = %d %v", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/trainer/report", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("report before any run = %d, want 404", resp.StatusCode)
	}
}

func TestStartStop(t *testing.T) {
	srv, svc := newTestServer(t, nil)

	long := `{"generations": 10000, "placements": 500, "mutation_rate": 0}`
	resp, body := do(t, http.MethodPost, srv.URL+"/api/trainer/start", long)
	if resp.StatusCode != http.StatusOK || body["generations"] != float64(10000) {
		t.Fatalf("start = %d %v", resp.StatusCode, body)
	}
	if body["mutation_rate"] != float64(0) || body["mutation_step"] != 0.1 {
		t.Errorf("mutation rate %v step %v, want the explicit 0 and the base 0.1", body["mutation_rate"], body["mutation_step"])
	}
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/trainer/start", long)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second start = %d, want 409", resp.StatusCode)
	}

	resp, body = do(t, http.MethodPost, srv.URL+"/api/trainer/stop", "")
	if resp.StatusCode != http.StatusOK || body["running"] != false {
		t.Errorf("stop = %d %v", resp.StatusCode, body)
	}
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/trainer/stop", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("stop without a job = %d, want 409", resp.StatusCode)
	}
	if _, ok := svc.Report(); !ok {
		t.Error("no report after stop")
	}
}

func TestStartRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"population":`},
		{"unknown fitness", `{"fitness": "height"}`},
		{"invalid population", `{"population": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/api/trainer/start", tt.body)
			if resp.StatusCode != http.StatusBadRequest || body["error"] == nil {
				t.Errorf("start = %d %v, want 400", resp.StatusCode, body)
			}
		})
	}
}

func TestReportAfterRun(t *testing.T) {
	srv, svc := newTestServer(t, nil)
	resp, _ := do(t, http.MethodPost, srv.URL+"/api/trainer/start", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start = %d", resp.StatusCode)
	}
	svc.Wait()

	resp, body := do(t, http.MethodGet, srv.URL+"/api/trainer/report", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report = %d", resp.StatusCode)
	}
	gens, ok := body["generations"].([]any)
	if !ok || len(gens) != 2 {
		t.Errorf("report generations = %v", body["generations"])
	}
}

func TestGenerationFeed(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	defer close(done)
	go hub.Run(done)
	srv, _ := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/generations"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "status" {
		t.Fatalf("first message type %q, want status", msg.Type)
	}

	hub.Publish(trainer.GenerationReport{RunID: "run", Generation: 3})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "generation" {
		t.Fatalf("message type %q, want generation", msg.Type)
	}
	var gen trainer.GenerationReport
	if err := json.Unmarshal(msg.Payload, &gen); err != nil {
		t.Fatal(err)
	}
	if gen.RunID != "run" || gen.Generation != 3 {
		t.Errorf("generation payload %+v", gen)
	}
	if hub.Clients() != 1 {
		t.Errorf("hub has %d clients", hub.Clients())
	}
}
