package account

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrInviterNotFound  = errors.New("inviter not found")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrInvalidAccount   = errors.New("invalid account")
)
