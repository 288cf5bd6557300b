//go:build !ios && !android && (amd64 || arm64)

// Package platform knows how shared libraries are named on each OS.
package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// LibraryExtension is the file extension for shared libraries on this platform.
var LibraryExtension string

// LibraryPrefix is the prefix for shared library names on this platform.
var LibraryPrefix string

func init() {
	switch runtime.GOOS {
	case "darwin":
		LibraryExtension = ".dylib"
		LibraryPrefix = "lib"
	case "windows":
		LibraryExtension = ".dll"
		LibraryPrefix = ""
	default: // linux, freebsd, etc.
		LibraryExtension = ".so"
		LibraryPrefix = "lib"
	}
}

// FormatLibraryName returns the platform-specific library filename.
// If version is 0, returns the unversioned library name.
//
// Examples:
//   - Linux:   FormatLibraryName("spotify", 12) -> "libspotify.so.12"
//   - macOS:   FormatLibraryName("spotify", 12) -> "libspotify.12.dylib"
//   - Windows: FormatLibraryName("spotify", 12) -> "spotify-12.dll"
func FormatLibraryName(name string, version int) string {
	switch runtime.GOOS {
	case "darwin":
		if version > 0 {
			return fmt.Sprintf("%s%s.%d%s", LibraryPrefix, name, version, LibraryExtension)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	case "windows":
		if version > 0 {
			return fmt.Sprintf("%s%s-%d%s", LibraryPrefix, name, version, LibraryExtension)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	default: // linux, freebsd
		if version > 0 {
			return fmt.Sprintf("%s%s%s.%d", LibraryPrefix, name, LibraryExtension, version)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	}
}

// FrameworkBinary returns the path of the binary inside a macOS framework
// bundle located in dir, e.g. dir/libspotify.framework/libspotify.
// It returns "" on other platforms.
func FrameworkBinary(dir, name string) string {
	if runtime.GOOS != "darwin" {
		return ""
	}
	bundle := LibraryPrefix + name
	return filepath.Join(dir, bundle+".framework", bundle)
}
