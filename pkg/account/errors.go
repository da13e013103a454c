package account

import "errors"

var (
	// ErrDuplicateEmail is returned when registering an email that already has an account.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	// ErrCurrentPasswordRequired is returned by UpdateProfile when a new password
	// is supplied without the current one.
	ErrCurrentPasswordRequired = errors.New("current password is required to set a new password")
	ErrNoChanges               = errors.New("no changes to update")
)
