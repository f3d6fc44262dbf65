package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"lairkeep/internal/config"
	"lairkeep/internal/db"
	"lairkeep/internal/domain"
	"lairkeep/internal/engine"
	"lairkeep/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	e.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	handler, err := New(Config{Engine: e, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestMinionPayFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/minions", map[string]any{
		"name":          "Igor",
		"skill_level":   5,
		"specialty":     "Hacking",
		"salary_demand": 1000,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create minion: %d %s", res.StatusCode, string(data))
	}
	var created domain.Minion
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal minion: %v", err)
	}
	if created.LoyaltyScore != 50 || created.Mood != "Grumpy" {
		t.Fatalf("unexpected defaults: loyalty=%d mood=%q", created.LoyaltyScore, created.Mood)
	}

	payRes, payBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/minions/"+itoa(created.ID)+"/pay", map[string]any{
		"amount": 1000,
	}, nil)
	if payRes.StatusCode != http.StatusOK {
		t.Fatalf("pay: %d %s", payRes.StatusCode, string(payBody))
	}
	var paid PayMinionResponse
	if err := json.Unmarshal(payBody, &paid); err != nil {
		t.Fatalf("unmarshal pay response: %v", err)
	}
	if paid.Minion.LoyaltyScore != 53 {
		t.Fatalf("loyalty after pay = %d, want 53", paid.Minion.LoyaltyScore)
	}
}

func TestUnknownSpecialtyRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/minions", map[string]any{
		"name":        "Impostor",
		"skill_level": 5,
		"specialty":   "Gardening",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "bad_request" {
		t.Fatalf("error code = %q, want bad_request", envelope.Error.Code)
	}
}

func TestMaintainEndpointReturnsCost(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/equipment", map[string]any{
		"name":           "Orbital Laser",
		"category":       "Doomsday Device",
		"condition":      40,
		"purchase_price": 10000,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create equipment: %d %s", res.StatusCode, string(data))
	}
	var eq domain.Equipment
	_ = json.Unmarshal(data, &eq)

	mRes, mBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/equipment/"+itoa(eq.ID)+"/maintain", nil, nil)
	if mRes.StatusCode != http.StatusOK {
		t.Fatalf("maintain: %d %s", mRes.StatusCode, string(mBody))
	}
	var maintained MaintainEquipmentResponse
	if err := json.Unmarshal(mBody, &maintained); err != nil {
		t.Fatalf("unmarshal maintain response: %v", err)
	}
	if maintained.Cost != 3000 {
		t.Fatalf("cost = %v, want 3000", maintained.Cost)
	}
	if maintained.Equipment.Condition != 100 {
		t.Fatalf("condition = %d, want 100", maintained.Equipment.Condition)
	}
}

func TestReportEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/report", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("report: %d %s", res.StatusCode, string(data))
	}
	var rep ReportResponse
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if rep.Schemes.AvgSuccess != 0 {
		t.Fatalf("avg success on empty fleet = %v, want 0", rep.Schemes.AvgSuccess)
	}
}

func TestAPIKeyAuthRequired(t *testing.T) {
	srv, cleanup := newTestServerWithSecret(t, "test-secret")
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/minions", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %s", res.StatusCode, string(data))
	}

	hRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if hRes.StatusCode != http.StatusOK {
		t.Fatalf("health must stay open, got %d", hRes.StatusCode)
	}
}

func newTestServerWithSecret(t *testing.T, secret string) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	handler, err := New(Config{Engine: e, BasePath: "/v0", Auth: AuthConfig{JWTSecret: secret}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
