package log

import (
	"errors"

	"github.com/getsentry/sentry-go"
)

var ErrClientInit = errors.New("failed to initialize sentry client")

// NewSentryClient binds a sentry client to the current hub. A batch run is
// short lived, so callers should flush before exit.
func NewSentryClient(dsn string, buildVersion string) (*sentry.Client, error) {
	hub := sentry.CurrentHub()

	client, errClient := sentry.NewClient(sentry.ClientOptions{
		Dsn:        dsn,
		SampleRate: 1.0,
		Release:    buildVersion,
	})
	if errClient != nil {
		return nil, errors.Join(errClient, ErrClientInit)
	}

	hub.BindClient(client)

	return client, nil
}
