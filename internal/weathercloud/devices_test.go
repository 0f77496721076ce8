package weathercloud

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
)

func deviceIDs(devices []Device) []string {
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i], _ = d["id"].(string)
	}
	return ids
}

func TestNormalizeOrdersAscending(t *testing.T) {
	devices := []Device{
		{"id": "b", "distance": 7.5},
		{"id": "c", "distance": 31.0},
		{"id": "a", "distance": 1.2},
	}

	got := deviceIDs(Normalize(devices, SortByDistance))
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestNormalizeMissingKeySortsLast(t *testing.T) {
	devices := []Device{
		{"id": "x"},
		{"id": "b", "views": float64(20)},
		{"id": "a", "views": float64(5)},
		{"id": "y"},
	}

	got := deviceIDs(Normalize(devices, SortByViews))
	want := []string{"a", "b", "x", "y"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestNormalizeIsStableOnTies(t *testing.T) {
	devices := []Device{
		{"id": "first", "age": float64(100)},
		{"id": "second", "age": float64(100)},
		{"id": "third", "age": float64(100)},
	}

	got := deviceIDs(Normalize(devices, SortByAge))
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ties reordered: %v", got)
		}
	}
}

func TestNormalizeZeroKeyLeavesOrder(t *testing.T) {
	devices := []Device{
		{"id": "z", "distance": 99.0},
		{"id": "a", "distance": 1.0},
	}

	got := deviceIDs(Normalize(devices, SortNone))
	if got[0] != "z" || got[1] != "a" {
		t.Fatalf("remote order not preserved: %v", got)
	}
}

func TestPopularitySortsByFollowerCount(t *testing.T) {
	devices := []Device{
		{"id": "big", "followers": float64(900)},
		{"id": "small", "followers": float64(3)},
	}

	got := deviceIDs(Normalize(devices, SortByPopularity))
	if got[0] != "small" || got[1] != "big" {
		t.Fatalf("order = %v, want followers ascending", got)
	}
}

func TestNearest(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page/coordinates/latitude/38.72/longitude/-9.14/distance/25" {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"devices":[
			{"id":"far","distance":19.8,"elevation":120},
			{"id":"near","distance":2.4,"custom":"kept"}
		]}`))
	}))

	list, err := c.Nearest(context.Background(), 38.72, -9.14, 25)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if list.SortKey != SortByDistance {
		t.Errorf("SortKey = %q, want %q", list.SortKey, SortByDistance)
	}

	got := deviceIDs(list.Devices)
	if got[0] != "near" || got[1] != "far" {
		t.Fatalf("order = %v, want closest first", got)
	}
	// Fields the pages invent stay on the entries.
	if list.Devices[0]["custom"] != "kept" {
		t.Errorf("unknown field dropped: %+v", list.Devices[0])
	}
	if list.Devices[1]["elevation"] != float64(120) {
		t.Errorf("unknown field dropped: %+v", list.Devices[1])
	}
}

func TestNearestRejectsMarkerlessPayload(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"note":"nothing here"}`))
	}))

	_, err := c.Nearest(context.Background(), 38.72, -9.14, 25)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}

func TestTopRankings(t *testing.T) {
	cases := []struct {
		kind     TopKind
		period   string
		wantPath string
		wantKey  SortKey
	}{
		{TopNewest, "", "/page/newest/country/PT", SortByAge},
		{TopFollowers, "", "/page/followers/country/PT", SortByPopularity},
		{TopPopular, "month", "/page/popular/country/PT/period/month", SortByViews},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			var gotPath string
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"devices":[{"id":"only"}]}`))
			}))

			list, err := c.Top(context.Background(), tc.kind, "PT", tc.period)
			if err != nil {
				t.Fatalf("Top: %v", err)
			}
			if gotPath != tc.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tc.wantPath)
			}
			if list.SortKey != tc.wantKey {
				t.Errorf("SortKey = %q, want %q", list.SortKey, tc.wantKey)
			}
		})
	}
}

func TestTopPopularNeedsPeriod(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, countingHandler(&calls, nil))

	_, err := c.Top(context.Background(), TopPopular, "PT", "")
	if !errors.Is(err, ErrPeriodRequired) {
		t.Fatalf("err = %v, want ErrPeriodRequired", err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("remote saw %d requests, want none", n)
	}
}

func TestTopRejectsUnknownKind(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, countingHandler(&calls, nil))

	_, err := c.Top(context.Background(), TopKind("loudest"), "PT", "")
	if err == nil {
		t.Fatal("expected an error for an unknown ranking kind")
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("remote saw %d requests, want none", n)
	}
}

func TestOwnRequiresSessionBeforeNetwork(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, countingHandler(&calls, nil))

	_, err := c.Own(context.Background())
	if !errors.Is(err, ErrSessionRequired) {
		t.Fatalf("err = %v, want ErrSessionRequired", err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("remote saw %d requests, want none", n)
	}
}

func TestOwn(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page/own" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if ck, err := r.Cookie("sid"); err != nil || ck.Value != "1" {
			t.Error("own request carries no session cookie")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"devices":[{"id":"mine"}],"favorites":[{"id":"theirs"},{"id":"also"}]}`))
	}))
	c.Session().SetCookies([]string{"sid=1"}, nil)

	own, err := c.Own(context.Background())
	if err != nil {
		t.Fatalf("Own: %v", err)
	}
	if len(own.Devices) != 1 || own.Devices[0]["id"] != "mine" {
		t.Errorf("devices = %+v", own.Devices)
	}
	if len(own.Favorites) != 2 {
		t.Errorf("favorites = %+v", own.Favorites)
	}
}

func TestOwnRejectsIncompletePayload(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"devices":[{"id":"mine"}]}`))
	}))
	c.Session().SetCookies([]string{"sid=1"}, nil)

	_, err := c.Own(context.Background())
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}
