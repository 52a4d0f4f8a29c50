package notifier

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/pillminder/internal/constants"
)

var pushoverAPIURL = constants.PushoverAPIURL

// PushoverNotifier sends reminders through the Pushover messages API.
type PushoverNotifier struct {
	Token string
	User  string

	client *http.Client
}

func NewPushoverNotifier(token, user string) *PushoverNotifier {
	return &PushoverNotifier{
		Token:  token,
		User:   user,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// RequestPermission is granted once both credentials are configured.
func (p *PushoverNotifier) RequestPermission() (constants.Permission, error) {
	if strings.TrimSpace(p.Token) == "" || strings.TrimSpace(p.User) == "" {
		return constants.PermissionDenied, nil
	}
	return constants.PermissionGranted, nil
}

func (p *PushoverNotifier) Deliver(title, body string, opts Options) error {
	params := url.Values{}
	params.Set("token", p.Token)
	params.Set("user", p.User)
	params.Set("title", title)
	params.Set("message", body)

	switch {
	case opts.Silent:
		params.Set("priority", "-1")
		params.Set("sound", "none")
	case opts.Urgent:
		params.Set("priority", "1")
	}

	resp, err := p.client.PostForm(pushoverAPIURL, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pushover api error: status %s, body %s", resp.Status, string(respBody))
	}

	return nil
}
