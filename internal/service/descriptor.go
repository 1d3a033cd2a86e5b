package service

import (
	"fmt"
	"path/filepath"
	"regexp"
)

var identifierRE = regexp.MustCompile(`^[A-Za-z0-9._:@+-]+$`)

// Descriptor names one service and the locations derived from it.
type Descriptor struct {
	// Identifier is the positional argument the name was derived from.
	Identifier string
	// Name is Prefix + Identifier.
	Name string
	// Dir is the service directory holding the run file.
	Dir string
	// Link is the supervisor symlink pointing at Dir.
	Link string
}

// Describe derives the Descriptor for identifier.
func (p Paths) Describe(identifier string) (Descriptor, error) {
	if identifier == "" {
		return Descriptor{}, ErrMissingArgument
	}
	if !identifierRE.MatchString(identifier) {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidArgument, identifier)
	}
	name := p.Prefix + identifier
	return Descriptor{
		Identifier: identifier,
		Name:       name,
		Dir:        filepath.Join(p.ServicesDir(), name),
		Link:       filepath.Join(p.ServiceRoot, name),
	}, nil
}

// RunFile is the path of the launcher inside the service directory.
func (d Descriptor) RunFile() string {
	return filepath.Join(d.Dir, "run")
}
