package version

import "fmt"

const (
	// Version is the current version of tubedigest
	Version = "0.3.0"
)

// GetVersion returns the current version string
func GetVersion() string {
	return fmt.Sprintf("tubedigest %s", Version)
}
