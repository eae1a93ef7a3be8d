package referral

import "errors"

// Service errors
var (
	ErrNotFound        = errors.New("buyer not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnavailable     = errors.New("account directory unavailable")
	ErrInvalidConfig   = errors.New("invalid referral config")
)
