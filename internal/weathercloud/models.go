package weathercloud

import "regexp"

// Condition is the qualitative weather label derived from pressure and
// rain rate. Dry labels may carry a "-fog" suffix when the cloud base sits
// low enough.
type Condition string

const (
	ConditionClear    Condition = "clear"
	ConditionFew      Condition = "few"
	ConditionChange   Condition = "change"
	ConditionCloud    Condition = "cloud"
	ConditionLight    Condition = "light"
	ConditionModerate Condition = "moderate"
	ConditionHeavy    Condition = "heavy"
)

// withFog overlays the fog suffix on a pressure-derived label.
func (c Condition) withFog() Condition {
	return c + "-fog"
}

// reservedID matches the ten-digit device codes the service keeps for
// internal use; they are never valid station ids on the public API.
var reservedID = regexp.MustCompile(`^\d{10}$`)

// ValidID reports whether id can be used against the remote API.
func ValidID(id string) bool {
	return id != "" && !reservedID.MatchString(id)
}

// RawSample is the instantaneous reading set returned by the values
// endpoint. Temp is a pointer because its presence is what marks the
// payload as usable; zero is a legitimate temperature.
type RawSample struct {
	Temp     *float64 `json:"temp" validate:"required"`
	Dew      float64  `json:"dew"`
	Bar      float64  `json:"bar" validate:"gte=0"`
	Hum      float64  `json:"hum" validate:"gte=0,lte=100"`
	RainRate float64  `json:"rainrate" validate:"gte=0"`
	Rain     float64  `json:"rain"`
	Wspd     float64  `json:"wspd"`
	WspdHi   float64  `json:"wspdhi"`
	Wdir     float64  `json:"wdir"`
	Epoch    int64    `json:"epoch"`
}

// DerivedIndicators are the values computed from a RawSample.
type DerivedIndicators struct {
	CloudsHeight float64   `json:"cloudsHeight"`
	Condition    Condition `json:"condition"`
	Feel         float64   `json:"feel"`
}

// CurrentWeather is the weather section of a report: the raw sample with
// its epoch relocated into the update section, plus the derived
// indicators.
type CurrentWeather struct {
	Temp     float64 `json:"temp"`
	Dew      float64 `json:"dew"`
	Bar      float64 `json:"bar"`
	Hum      float64 `json:"hum"`
	RainRate float64 `json:"rainrate"`
	Rain     float64 `json:"rain"`
	Wspd     float64 `json:"wspd"`
	WspdHi   float64 `json:"wspdhi"`
	Wdir     float64 `json:"wdir"`

	DerivedIndicators
}

// UpdateInfo is the last-update section. Update is the data age in
// seconds as reported by the endpoint, and a pointer because its presence
// marks the payload. Time, UpdateTime and Minutes are filled in during
// assembly.
type UpdateInfo struct {
	Update     *int64 `json:"update"`
	ServerTime int64  `json:"server_time,omitempty"`

	Time       string `json:"time"`
	UpdateTime int64  `json:"updateTime"`
	Minutes    int64  `json:"minutes"`
}

// Observer identifies who runs a station; its presence marks a profile
// payload as usable.
type Observer struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Followers is the station's follower counter.
type Followers struct {
	Number int `json:"number"`
}

// DeviceProfile describes the station hardware.
type DeviceProfile struct {
	Brand string `json:"brand,omitempty"`
	Model string `json:"model,omitempty"`
}

// ProfileInfo is station metadata passed through unchanged from the
// profile endpoint.
type ProfileInfo struct {
	Observer  *Observer      `json:"observer"`
	Followers *Followers     `json:"followers,omitempty"`
	Device    *DeviceProfile `json:"device,omitempty"`
}

// WeatherReport is the assembled view of one station at one instant.
// Built once per query, immutable afterwards, never persisted remotely.
type WeatherReport struct {
	Weather CurrentWeather `json:"weather"`
	Update  UpdateInfo     `json:"update"`
	Profile ProfileInfo    `json:"profile"`
}

// StatusRow is one row of the device status listing; the schema varies by
// device generation, so rows stay open maps.
type StatusRow map[string]any

// Statistics is the aggregate statistics payload, passed through
// unchanged.
type Statistics map[string]any
