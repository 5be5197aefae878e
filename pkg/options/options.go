// Package options provides reusable configuration option structs.
// Each options struct knows its defaults, its validation rules and how to
// bind itself to a pflag.FlagSet.
package options

import (
	"fmt"
	"net"

	"github.com/spf13/pflag"
)

// IOptions is the contract every options struct satisfies.
type IOptions interface {
	// Validate checks the options and returns all problems found.
	Validate() []error

	// AddFlags binds the options fields to the given flag set.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks that addr is a valid "host:port" string.
func ValidateAddress(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return nil
}
