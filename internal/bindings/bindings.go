//go:build !ios && !android && (amd64 || arm64)

// Package bindings locates and opens the libspotify shared library with
// purego. Symbol registration lives with the code that uses it.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/spgo/internal/platform"
)

// ErrNotLoaded is returned when native functions are used before Load().
var ErrNotLoaded = errors.New("spgo: libspotify not loaded; call libspotify.Load() first")

// ErrLibraryNotFound is returned when the shared library cannot be found.
var ErrLibraryNotFound = errors.New("spgo: libspotify library not found")

// libspotify 12 is the last API level that was ever published.
var spotifyVersions = []int{12}

var (
	libSpotify uintptr

	loaded   bool
	loadOnce sync.Once
	loadErr  error

	extraDirMu sync.Mutex
	extraDir   string

	buildID func() string
)

// SetLibraryDir adds dir in front of the default search paths.
// It only has an effect before the first call to Load.
func SetLibraryDir(dir string) {
	extraDirMu.Lock()
	defer extraDirMu.Unlock()
	extraDir = dir
}

// IsLoaded returns true if libspotify has been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Load opens libspotify. It is safe to call multiple times; only the first
// call does any work and its error is returned to every caller.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	var err error
	libSpotify, err = loadLibrary("spotify", spotifyVersions)
	if err != nil {
		return fmt.Errorf("loading libspotify: %w", err)
	}
	purego.RegisterLibFunc(&buildID, libSpotify, "sp_build_id")
	return nil
}

// loadLibrary attempts to load a library by trying versioned names.
func loadLibrary(name string, versions []int) (uintptr, error) {
	for _, searchPath := range LibrarySearchPaths() {
		if fw := platform.FrameworkBinary(searchPath, name); fw != "" {
			if lib, err := tryOpen(fw); err == nil {
				return lib, nil
			}
		}

		for _, ver := range versions {
			fullPath := filepath.Join(searchPath, platform.FormatLibraryName(name, ver))
			if lib, err := tryOpen(fullPath); err == nil {
				return lib, nil
			}
		}

		fullPath := filepath.Join(searchPath, platform.FormatLibraryName(name, 0))
		if lib, err := tryOpen(fullPath); err == nil {
			return lib, nil
		}
	}

	// Let the dynamic loader search on its own.
	for _, ver := range versions {
		if lib, err := tryOpen(platform.FormatLibraryName(name, ver)); err == nil {
			return lib, nil
		}
	}
	if lib, err := tryOpen(platform.FormatLibraryName(name, 0)); err == nil {
		return lib, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

func tryOpen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// FindLibrary searches for libspotify and returns its full path.
// This is useful for diagnostics.
func FindLibrary() (string, error) {
	for _, searchPath := range LibrarySearchPaths() {
		candidates := make([]string, 0, len(spotifyVersions)+2)
		if fw := platform.FrameworkBinary(searchPath, "spotify"); fw != "" {
			candidates = append(candidates, fw)
		}
		for _, ver := range spotifyVersions {
			candidates = append(candidates, filepath.Join(searchPath, platform.FormatLibraryName("spotify", ver)))
		}
		candidates = append(candidates, filepath.Join(searchPath, platform.FormatLibraryName("spotify", 0)))

		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				return c, nil
			}
		}
	}
	return "", fmt.Errorf("%w: spotify", ErrLibraryNotFound)
}

// LibrarySearchPaths returns the directories searched for libspotify, in
// order: SetLibraryDir, SPGO_LIB_PATH, the loader path variable, then
// platform defaults.
func LibrarySearchPaths() []string {
	var paths []string

	extraDirMu.Lock()
	if extraDir != "" {
		paths = append(paths, extraDir)
	}
	extraDirMu.Unlock()

	if p := os.Getenv("SPGO_LIB_PATH"); p != "" {
		paths = append(paths, filepath.SplitList(p)...)
	}

	switch runtime.GOOS {
	case "linux", "freebsd":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/local/lib",
			"/usr/lib",
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
		)

	case "darwin":
		if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
			paths = append(paths, filepath.SplitList(dyldPath)...)
		}
		paths = append(paths,
			"/Library/Frameworks",
			"/opt/homebrew/lib",
			"/usr/local/lib",
		)

	case "windows":
		if winPath := os.Getenv("PATH"); winPath != "" {
			paths = append(paths, filepath.SplitList(winPath)...)
		}
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}
	}

	return paths
}

// LibSpotify returns the dlopen handle, or 0 if not loaded.
func LibSpotify() uintptr {
	return libSpotify
}

// BuildID returns libspotify's build identifier, or "" if not loaded.
func BuildID() string {
	if !loaded || buildID == nil {
		return ""
	}
	return buildID()
}
