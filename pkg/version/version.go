// Package version holds the build version of the rrdp publisher.
package version

import "fmt"

const (
	// Major represents the current major version.
	Major = 0
	// Minor represents the current minor version.
	Minor = 1
	// Patch represents the current patch version.
	Patch = 0
)

// Version is the semantic version string, computed once at package init.
var Version string

func init() {
	Version = fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}
