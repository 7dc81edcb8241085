//nolint:testpackage // requires internal access to unexported types and functions
package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()

	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestStringShortensCommit(t *testing.T) {
	info := BuildInfo{
		Version:   "1.2.3",
		GitCommit: "0123456789abcdef",
		GoVersion: "go1.24",
	}

	s := info.String()
	assert.Contains(t, s, "1.2.3")
	assert.Contains(t, s, "0123456")
	assert.NotContains(t, s, "0123456789abcdef")
}
