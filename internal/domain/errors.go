package domain

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrTokenNotFound        = errors.New("token not found")

	// ErrInvalidSubscription rejects a blank search term.
	ErrInvalidSubscription = errors.New("invalid subscription")

	// ErrUntrackFailed covers malformed ids, missing subscriptions and foreign
	// owners alike so that replies never reveal other users' subscriptions.
	ErrUntrackFailed = errors.New("untrack failed")

	ErrMalformedDelivery = errors.New("malformed delivery")
)
