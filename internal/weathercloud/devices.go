package weathercloud

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/pwshub/weathercloud-hub/internal/common"
)

// Device is one entry of a device-list endpoint. The pages decide per
// query which fields an entry carries, so entries stay open maps and
// unknown fields pass through untouched.
type Device map[string]any

// SortKey names the field value a normalized device list is ordered by.
type SortKey string

const (
	SortNone         SortKey = ""
	SortByDistance   SortKey = "distance"
	SortByAge        SortKey = "age"
	SortByViews      SortKey = "views"
	SortByPopularity SortKey = "popularity"
)

// field returns the wire name carrying the key's value; popularity is the
// follower count on the wire.
func (k SortKey) field() string {
	if k == SortByPopularity {
		return "followers"
	}
	return string(k)
}

// DeviceList is a normalized listing annotated with the key that ordered
// it.
type DeviceList struct {
	SortKey SortKey  `json:"sortKey,omitempty"`
	Devices []Device `json:"devices"`
}

// OwnDevices is the authenticated owner listing: the caller's stations
// and the stations they follow, both in the order the service keeps them.
type OwnDevices struct {
	Devices   []Device `json:"devices"`
	Favorites []Device `json:"favorites"`
}

// TopKind selects a ranking page.
type TopKind string

const (
	TopNewest    TopKind = "newest"
	TopFollowers TopKind = "followers"
	TopPopular   TopKind = "popular"
)

// sortKey maps a ranking onto the key its entries are ordered by.
func (k TopKind) sortKey() (SortKey, bool) {
	switch k {
	case TopNewest:
		return SortByAge, true
	case TopFollowers:
		return SortByPopularity, true
	case TopPopular:
		return SortByViews, true
	}
	return SortNone, false
}

// Normalize orders devices ascending by the key's value. The sort is
// stable, entries missing the key sort last, and a zero key leaves the
// remote order untouched, which is what the owner listing wants.
func Normalize(devices []Device, key SortKey) []Device {
	if key == SortNone {
		return devices
	}

	field := key.field()
	sort.SliceStable(devices, func(i, j int) bool {
		a, aok := common.ToFloat(devices[i][field])
		b, bok := common.ToFloat(devices[j][field])
		switch {
		case aok && bok:
			return a < b
		case aok:
			return true
		default:
			return false
		}
	})
	return devices
}

// Nearest lists the stations within radius kilometres of a coordinate,
// closest first.
func (c *Client) Nearest(ctx context.Context, lat, lon, radius float64) (*DeviceList, error) {
	path := fmt.Sprintf("/page/coordinates/latitude/%g/longitude/%g/distance/%g", lat, lon, radius)

	var payload struct {
		Devices *[]Device `json:"devices"`
	}
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	if payload.Devices == nil {
		return nil, fmt.Errorf("%w: coordinates payload has no devices", ErrFetchFailed)
	}

	return &DeviceList{
		SortKey: SortByDistance,
		Devices: Normalize(*payload.Devices, SortByDistance),
	}, nil
}

// Top lists a country ranking. The popularity ranking is windowed and
// needs a period; the other rankings ignore it.
func (c *Client) Top(ctx context.Context, kind TopKind, country, period string) (*DeviceList, error) {
	key, ok := kind.sortKey()
	if !ok {
		return nil, fmt.Errorf("unknown ranking kind %q", kind)
	}
	if kind == TopPopular && period == "" {
		return nil, fmt.Errorf("%w: the popular ranking needs a period", ErrPeriodRequired)
	}

	path := fmt.Sprintf("/page/%s/country/%s", url.PathEscape(string(kind)), url.PathEscape(country))
	if kind == TopPopular {
		path += "/period/" + url.PathEscape(period)
	}

	var payload struct {
		Devices *[]Device `json:"devices"`
	}
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	if payload.Devices == nil {
		return nil, fmt.Errorf("%w: ranking payload has no devices", ErrFetchFailed)
	}

	return &DeviceList{
		SortKey: key,
		Devices: Normalize(*payload.Devices, key),
	}, nil
}

// Own lists the authenticated user's stations and favourites. Requires a
// session; checked before any network traffic so an unauthenticated
// caller fails fast.
func (c *Client) Own(ctx context.Context) (*OwnDevices, error) {
	if !c.session.Authenticated() {
		return nil, ErrSessionRequired
	}

	var payload struct {
		Devices   *[]Device `json:"devices"`
		Favorites *[]Device `json:"favorites"`
	}
	if err := c.getJSON(ctx, "/page/own", &payload); err != nil {
		return nil, err
	}
	if payload.Devices == nil || payload.Favorites == nil {
		return nil, fmt.Errorf("%w: own-devices payload is incomplete", ErrFetchFailed)
	}

	return &OwnDevices{
		Devices:   *payload.Devices,
		Favorites: *payload.Favorites,
	}, nil
}
