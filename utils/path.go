package utils

import "flag"

// DefaultTarget is analyzed when no package pattern is given.
const DefaultTarget = "hello-world"

// MakePath returns the package pattern to analyze: the first non-flag
// argument, or DefaultTarget.
func MakePath() string {
	if args := flag.Args(); len(args) >= 1 {
		return args[0]
	}
	return DefaultTarget
}
