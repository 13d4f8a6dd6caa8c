package usecase

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrUserNotFound       = errors.New("the user with this email does not exist in the system")
	ErrInvalidLink        = errors.New("invalid link")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrForbidden          = errors.New("you have no permission for modifying this property")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrInvalidProperty    = errors.New("invalid property data")
	ErrInvalidReservation = errors.New("invalid reservation data")
	ErrInvalidRole        = errors.New("invalid role")
)
