package weathercloud

import "errors"

// Error kinds surfaced by client operations. Callers match them with
// errors.Is; transport details ride along in the wrapping message.
var (
	// ErrInvalidID rejects station ids that are empty or match the
	// reserved ten-digit pattern the service never assigns to public
	// stations.
	ErrInvalidID = errors.New("invalid station id")

	// ErrFetchFailed means an endpoint did not return usable data: the
	// payload is missing its marker field, or the call itself failed,
	// regardless of the underlying HTTP status.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrInvalidData means the station reported physically impossible
	// readings; no report is built from them.
	ErrInvalidData = errors.New("invalid station data")

	// ErrSessionRequired is returned by session-gated operations called
	// with an empty cookie set, before any network traffic happens.
	ErrSessionRequired = errors.New("session required")

	// ErrPeriodRequired is returned when the popularity ranking is
	// requested without the mandatory period.
	ErrPeriodRequired = errors.New("period required")
)
