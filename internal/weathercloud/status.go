package weathercloud

import (
	"context"
	"fmt"
	"net/url"
)

// StationStatus returns the raw status rows for one of the caller's own
// stations. Requires a session; checked before any network traffic so an
// unauthenticated caller fails fast.
func (c *Client) StationStatus(ctx context.Context, id string) ([]StatusRow, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if !c.session.Authenticated() {
		return nil, ErrSessionRequired
	}

	var rows []StatusRow
	if err := c.postForm(ctx, "/device/ajaxdevicestats", url.Values{"d": {id}}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty status response", ErrFetchFailed)
	}
	if _, ok := rows[0]["date"]; !ok {
		return nil, fmt.Errorf("%w: status rows carry no date", ErrFetchFailed)
	}
	return rows, nil
}

// Statistics returns the station's aggregate statistics payload
// unchanged.
func (c *Client) Statistics(ctx context.Context, id string) (Statistics, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	var stats Statistics
	if err := c.getJSON(ctx, "/device/stats?code="+url.QueryEscape(id), &stats); err != nil {
		return nil, err
	}
	if _, ok := stats["temp_current"]; !ok {
		return nil, fmt.Errorf("%w: stats payload has no temp_current", ErrFetchFailed)
	}
	return stats, nil
}
