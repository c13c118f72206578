// Package catalog loads the INI-defined command catalog (§4.1 of the
// redarrow specification) and compiles each entry into an immutable
// Command ready for argument validation and exec-template expansion.
package catalog

import (
	"regexp"
	"time"
)

// DefaultTimeLimit is applied when a section omits time_limit.
const DefaultTimeLimit = 30 * time.Second

// Command is one compiled, immutable catalog entry.
type Command struct {
	Name       string
	Exec       string
	Args       []*regexp.Regexp
	TimeLimit  time.Duration
}

// Catalog maps command name to its compiled Command. Built once at startup
// and never mutated afterward; safe to share across request handlers
// without copying or locking.
type Catalog map[string]*Command

// Lookup returns the command registered under name, or (nil, false).
func (c Catalog) Lookup(name string) (*Command, bool) {
	cmd, ok := c[name]
	return cmd, ok
}
