// Package argv splits a runner command line into flags and positional arguments.
//
// The installer never interprets the runner's flags. It only needs to know
// which token names the device, so tokens are classified by a small state
// machine and every token is kept verbatim for the generated launcher.
package argv

import (
	"errors"
	"strings"
)

// Separator ends flag processing; every token after it is positional.
const Separator = "--"

// ErrNoPositional is returned by Identifier when the command line carries no
// positional token.
var ErrNoPositional = errors.New("argv: no positional argument")

// DefaultValueFlags lists the runner options that consume the following token
// as their value.
var DefaultValueFlags = []string{
	"--role",
	"--instance",
	"--phase",
	"--position",
	"--name",
	"--maxpower",
	"--pollinterval",
}

// Kind classifies a single command-line token.
type Kind int

const (
	// Flag is a token starting with a dash, including a bare "-".
	Flag Kind = iota
	// FlagValue is the token consumed by a preceding value flag.
	FlagValue
	// Sep is the "--" separator.
	Sep
	// Positional is any other token.
	Positional
)

func (k Kind) String() string {
	switch k {
	case Flag:
		return "flag"
	case FlagValue:
		return "flag-value"
	case Sep:
		return "separator"
	case Positional:
		return "positional"
	default:
		return "unknown"
	}
}

// Token is a classified command-line token.
type Token struct {
	Value string
	Kind  Kind
}

type state int

const (
	stateArgs state = iota
	stateValue
	statePositionalOnly
)

// Splitter classifies tokens. The zero value treats every dash token as a
// boolean flag.
type Splitter struct {
	valueFlags map[string]struct{}
}

// NewSplitter returns a Splitter that knows which flags take a separate value.
func NewSplitter(valueFlags []string) *Splitter {
	s := &Splitter{valueFlags: make(map[string]struct{}, len(valueFlags))}
	for _, f := range valueFlags {
		s.valueFlags[f] = struct{}{}
	}
	return s
}

// Classify returns one Token per input token, in order.
func (s *Splitter) Classify(args []string) []Token {
	tokens := make([]Token, 0, len(args))
	st := stateArgs
	for _, a := range args {
		switch st {
		case stateValue:
			tokens = append(tokens, Token{Value: a, Kind: FlagValue})
			st = stateArgs
		case statePositionalOnly:
			tokens = append(tokens, Token{Value: a, Kind: Positional})
		default:
			switch {
			case a == Separator:
				tokens = append(tokens, Token{Value: a, Kind: Sep})
				st = statePositionalOnly
			case strings.HasPrefix(a, "-"):
				tokens = append(tokens, Token{Value: a, Kind: Flag})
				if s.takesValue(a) {
					st = stateValue
				}
			default:
				tokens = append(tokens, Token{Value: a, Kind: Positional})
			}
		}
	}
	return tokens
}

// Split returns the positional tokens and everything else, each in input order.
func (s *Splitter) Split(args []string) (flags, positionals []string) {
	for _, t := range s.Classify(args) {
		if t.Kind == Positional {
			positionals = append(positionals, t.Value)
		} else {
			flags = append(flags, t.Value)
		}
	}
	return flags, positionals
}

// Identifier returns the last positional token of args.
func (s *Splitter) Identifier(args []string) (string, error) {
	_, positionals := s.Split(args)
	if len(positionals) == 0 {
		return "", ErrNoPositional
	}
	return positionals[len(positionals)-1], nil
}

// takesValue reports whether flag consumes the next token. Long flags also
// match by unique prefix ("--inst" for "--instance"), as argparse allows.
func (s *Splitter) takesValue(flag string) bool {
	if s == nil || strings.Contains(flag, "=") {
		return false
	}
	if _, ok := s.valueFlags[flag]; ok {
		return true
	}
	if !strings.HasPrefix(flag, "--") || len(flag) <= 2 {
		return false
	}
	matches := 0
	for vf := range s.valueFlags {
		if strings.HasPrefix(vf, flag) {
			matches++
		}
	}
	return matches == 1
}
