package bank

import "errors"

var (
	ErrBadAmount          = errors.New("amount must be greater than zero")
	ErrInsufficient       = errors.New("insufficient funds")
	ErrSameAccount        = errors.New("cannot transfer to the same account")
	ErrNotOwner           = errors.New("account is not owned by this user")
	ErrForbidden          = errors.New("not permitted for this role")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNonZeroBalance     = errors.New("account balance is not zero")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrNotTransfer        = errors.New("only transfers can be imported")
	ErrFutureAsOf         = errors.New("cannot accrue past the current time")
)
