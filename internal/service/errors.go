package service

import "errors"

var (
	// ErrMissingArgument means the command line carried no positional argument.
	ErrMissingArgument = errors.New("service: missing positional argument")

	// ErrInvalidArgument means the identifier cannot be used in a service name.
	ErrInvalidArgument = errors.New("service: invalid service identifier")

	// ErrAlreadyRegistered means the supervisor symlink already exists.
	ErrAlreadyRegistered = errors.New("service: already registered")

	// ErrAlreadyBuilt means the service directory already exists.
	ErrAlreadyBuilt = errors.New("service: already built")
)
