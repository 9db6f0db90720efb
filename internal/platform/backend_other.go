//go:build !linux && !windows

package platform

import (
	"fmt"
	"runtime"
)

// NewNative reports that no window-system binding exists for this platform.
func NewNative(string) (Native, error) {
	return nil, fmt.Errorf("window control is not supported on %s", runtime.GOOS)
}
