package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/pwshub/weathercloud-hub/internal/service"
	"github.com/pwshub/weathercloud-hub/internal/store"
	"github.com/pwshub/weathercloud-hub/internal/weathercloud"
)

// fakeRemote plays the upstream weather service for the whole API
// surface the handlers reach.
type fakeRemote struct {
	calls int32
}

func (f *fakeRemote) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)

		var body string
		switch {
		case r.URL.Path == "/device/values":
			body = `{"temp":18.4,"dew":9.2,"bar":1012,"hum":55,"rainrate":0,"rain":1.2,"wspd":12.5,"wspdhi":20.1,"wdir":270,"epoch":1677679536}`
		case r.URL.Path == "/device/ajaxupdatedate":
			body = `{"update":150}`
		case r.URL.Path == "/device/ajaxprofile":
			body = `{"observer":{"name":"Jane"}}`
		case r.URL.Path == "/device/ajaxdevicestats":
			body = `[{"date":"2023-03-01","uptime":99.2}]`
		case r.URL.Path == "/device/stats":
			body = `{"temp_current":18.4}`
		case strings.HasPrefix(r.URL.Path, "/page/coordinates/"):
			body = `{"devices":[{"id":"far","distance":19.8},{"id":"near","distance":2.4}]}`
		case strings.HasPrefix(r.URL.Path, "/page/newest/"),
			strings.HasPrefix(r.URL.Path, "/page/followers/"),
			strings.HasPrefix(r.URL.Path, "/page/popular/"):
			body = `{"devices":[{"id":"only"}]}`
		case r.URL.Path == "/page/own":
			body = `{"devices":[{"id":"mine"}],"favorites":[]}`
		case r.URL.Path == "/signin":
			if r.PostFormValue("mail") == "observer@example.com" && r.PostFormValue("password") == "hunter2" {
				w.Header().Set("Location", "/home")
				w.Header().Add("Set-Cookie", "WEATHERCLOUD_SESSION=abc123; Path=/")
				w.WriteHeader(http.StatusFound)
			}
			return
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}

func newTestApp(t *testing.T) (*fiber.App, *fakeRemote) {
	t.Helper()

	remote := &fakeRemote{}
	srv := httptest.NewServer(remote.handler())
	t.Cleanup(srv.Close)

	client := weathercloud.NewClient(weathercloud.NewSession(nil),
		weathercloud.WithBaseURL(srv.URL),
		weathercloud.WithHTTPClient(srv.Client()),
		weathercloud.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	st := store.NewMemoryStore(16, 0)
	svc := service.New(client, st, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewApp(svc), remote
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, raw
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestWeatherEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/weather/abc1234", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, raw)
	}

	var report weathercloud.WeatherReport
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.Weather.Condition != weathercloud.ConditionFew {
		t.Errorf("condition = %q, want few", report.Weather.Condition)
	}
	if report.Update.UpdateTime != 1677679536 {
		t.Errorf("updateTime = %d", report.Update.UpdateTime)
	}
}

func TestWeatherEndpointBadIDSkipsRemote(t *testing.T) {
	app, remote := newTestApp(t)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/weather/1234567890", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body map[string]string
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("body %s lacks the error field", raw)
	}
	if n := atomic.LoadInt32(&remote.calls); n != 0 {
		t.Fatalf("remote saw %d requests, want none", n)
	}
}

func TestLatestEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/weather/abc1234/latest", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status before any fetch = %d, want 404", resp.StatusCode)
	}

	if resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/weather/abc1234", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("priming fetch failed: %d %s", resp.StatusCode, raw)
	}

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/weather/abc1234/latest", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after fetch = %d, body %s", resp.StatusCode, raw)
	}

	var entry store.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Report == nil || entry.Report.Weather.Temp != 18.4 {
		t.Fatalf("unexpected entry: %s", raw)
	}
}

func TestHistoryEndpointValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/weather/abc1234/history", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without from/to", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodGet,
		"/api/v1/weather/abc1234/history?from=2023-03-01T00:00:00Z&to=2023-02-01T00:00:00Z", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for inverted range", resp.StatusCode)
	}
}

func TestStatusEndpointRequiresSession(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/status/abc1234", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/statistics/abc1234", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, raw)
	}
}

func TestNearestEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/nearest?lat=38.72&lon=-9.14&radius=25", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, raw)
	}

	var list weathercloud.DeviceList
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list.Devices) != 2 || list.Devices[0]["id"] != "near" {
		t.Fatalf("devices not sorted by distance: %s", raw)
	}
}

// The nearest endpoint reports failures as a one-element array so the
// result shape stays a list either way.
func TestNearestEndpointErrorShape(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/nearest?radius=25", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body []map[string]string
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("error body is not an array: %s", raw)
	}
	if len(body) != 1 || body[0]["error"] == "" {
		t.Fatalf("unexpected error body: %s", raw)
	}
}

func TestTopEndpointValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/top/newest", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status without country = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/top/loudest?country=PT", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status for unknown kind = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/top/popular?country=PT", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status without period = %d, want 400", resp.StatusCode)
	}

	resp, raw := doJSON(t, app, http.MethodGet, "/api/v1/top/popular?country=PT&period=month", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, raw)
	}
}

func TestSessionFlow(t *testing.T) {
	app, _ := newTestApp(t)

	// Gated before any sign-in.
	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/devices/own", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("own before login = %d, want 401", resp.StatusCode)
	}

	// Wrong pair.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/session/login",
		`{"mail":"observer@example.com","password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", resp.StatusCode)
	}

	// Malformed payload.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/session/login",
		`{"mail":"not-a-mail","password":"hunter2"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid mail = %d, want 400", resp.StatusCode)
	}

	// Right pair.
	resp, raw := doJSON(t, app, http.MethodPost, "/api/v1/session/login",
		`{"mail":"observer@example.com","password":"hunter2"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login = %d, body %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, app, http.MethodGet, "/api/v1/devices/own", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("own after login = %d, body %s", resp.StatusCode, raw)
	}
	var own weathercloud.OwnDevices
	if err := json.Unmarshal(raw, &own); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(own.Devices) != 1 || own.Devices[0]["id"] != "mine" {
		t.Fatalf("unexpected own devices: %s", raw)
	}

	// Sign out drops the session again.
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/session", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout = %d, want 204", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/devices/own", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("own after logout = %d, want 401", resp.StatusCode)
	}
}
