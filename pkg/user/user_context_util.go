package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

// UserKey holds the User resolved from the X-User-Id header.
const UserKey contextKey = "user"

var ErrNoUser = errors.New("no user in context")

// CurrentId returns the id of the user owning the forecast being served.
func CurrentId(ctx context.Context) (int, error) {
	current, err := CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return current.Id, nil
}

// CurrentUser returns the requesting user together with the settings (timezone, week start,
// currency) every forecast is computed in.
func CurrentUser(ctx context.Context) (User, error) {
	current, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("no user in request context")
		return User{}, ErrNoUser
	}
	return current, nil
}

// WithUser attaches the user so services can scope events, bank data and forecasts to them.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}
