package weathercloud

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Login signs in with the mail/password pair. The service answers a
// successful sign-in with a redirect and delivers the session through
// Set-Cookie headers on that response, so the redirect is captured
// instead of followed. With remember set, the pair is persisted for later
// automatic logins. A failed login leaves the session untouched.
func (c *Client) Login(ctx context.Context, mail, password string, remember bool) error {
	form := url.Values{
		"mail":     {mail},
		"password": {password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/signin", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Shallow copy so the redirect policy change stays local to sign-in.
	hc := *c.httpClient
	hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: signin: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("%w: signin answered %d, expected a redirect", ErrFetchFailed, resp.StatusCode)
	}

	var creds *Credentials
	if remember {
		creds = &Credentials{Mail: mail, Password: password}
	}
	if !c.session.SetCookies(resp.Header.Values("Set-Cookie"), creds) {
		return fmt.Errorf("%w: signin redirect carried no cookies", ErrFetchFailed)
	}

	if remember {
		if err := c.session.Persist(); err != nil {
			// The sign-in itself succeeded; only the remembering failed.
			c.logger.Warn("could not persist credentials", "error", err)
		}
	}
	return nil
}

// LoginRemembered signs in again with whatever credentials the session
// remembers. Reports false without error when none are available.
func (c *Client) LoginRemembered(ctx context.Context) (bool, error) {
	creds, ok := c.session.Remembered()
	if !ok {
		return false, nil
	}
	if err := c.Login(ctx, creds.Mail, creds.Password, false); err != nil {
		return false, err
	}
	return true, nil
}

// Logout drops the session and forgets any persisted credentials.
func (c *Client) Logout() error {
	return c.session.Clear()
}
