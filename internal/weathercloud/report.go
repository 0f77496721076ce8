package weathercloud

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pwshub/weathercloud-hub/internal/common"
)

var validate = validator.New()

// Weather fetches the three raw payloads behind a station report,
// validates them and assembles the final report. The fetches run
// concurrently and join before anything downstream happens; any failed
// leg aborts the whole assembly, a partial report is never returned.
func (c *Client) Weather(ctx context.Context, id string) (*WeatherReport, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	var (
		wg      sync.WaitGroup
		sample  RawSample
		update  UpdateInfo
		profile ProfileInfo

		errValues, errUpdate, errProfile error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		errValues = c.getJSON(ctx, "/device/values?code="+url.QueryEscape(id), &sample)
	}()
	go func() {
		defer wg.Done()
		errUpdate = c.postForm(ctx, "/device/ajaxupdatedate", url.Values{"d": {id}}, &update)
	}()
	go func() {
		defer wg.Done()
		errProfile = c.postForm(ctx, "/device/ajaxprofile", url.Values{"d": {id}}, &profile)
	}()
	wg.Wait()

	for _, err := range []error{errValues, errUpdate, errProfile} {
		if err != nil {
			return nil, err
		}
	}

	if sample.Temp == nil {
		return nil, fmt.Errorf("%w: values payload has no temp", ErrFetchFailed)
	}
	if update.Update == nil {
		return nil, fmt.Errorf("%w: update payload has no data age", ErrFetchFailed)
	}
	if profile.Observer == nil {
		return nil, fmt.Errorf("%w: profile payload has no observer", ErrFetchFailed)
	}

	return buildReport(sample, update, profile)
}

// buildReport validates the physical ranges, derives the indicators and
// reassembles the three sections. The raw epoch moves from the weather
// section into the update section.
func buildReport(sample RawSample, update UpdateInfo, profile ProfileInfo) (*WeatherReport, error) {
	if err := validate.Struct(sample); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	derived := Derive(sample)
	if derived.CloudsHeight < 0 {
		return nil, fmt.Errorf("%w: cloud base not computable (temp %.1f, dew %.1f)",
			ErrInvalidData, *sample.Temp, sample.Dew)
	}

	update.UpdateTime = sample.Epoch
	update.Time = common.ClockTime(sample.Epoch)
	update.Minutes = int64(math.Round(float64(*update.Update) / 60))

	return &WeatherReport{
		Weather: CurrentWeather{
			Temp:     *sample.Temp,
			Dew:      sample.Dew,
			Bar:      sample.Bar,
			Hum:      sample.Hum,
			RainRate: sample.RainRate,
			Rain:     sample.Rain,
			Wspd:     sample.Wspd,
			WspdHi:   sample.WspdHi,
			Wdir:     sample.Wdir,

			DerivedIndicators: derived,
		},
		Update:  update,
		Profile: profile,
	}, nil
}
