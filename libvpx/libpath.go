//go:build (darwin || linux) && !cgo && !novpx

package libvpx

import (
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// maxErrorLen bounds how far cString scans for the terminator.
const maxErrorLen = 1024

func libName() string {
	if runtime.GOOS == "darwin" {
		return "libmedia_vpxenc.dylib"
	}
	return "libmedia_vpxenc.so"
}

func libPaths() []string {
	var exeDir, wd string
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}
	wd, _ = os.Getwd()
	return libCandidates(libName(), os.Getenv("VPXENC_LIB_PATH"), exeDir, wd)
}

// libCandidates lists the paths openLib tries, most specific first. env may
// name the library itself or the directory holding it. Empty exeDir or wd
// skip their entries.
func libCandidates(name, env, exeDir, wd string) []string {
	var paths []string
	if env != "" {
		if fi, err := os.Stat(env); err == nil && fi.IsDir() {
			env = filepath.Join(env, name)
		}
		paths = append(paths, env)
	}
	if exeDir != "" {
		paths = append(paths, filepath.Join(exeDir, name), filepath.Join(exeDir, "..", "lib", name))
	}
	if wd != "" {
		paths = append(paths, filepath.Join(wd, "build", name), filepath.Join(wd, "..", "build", name))
		if root := moduleRoot(wd); root != "" && root != wd {
			paths = append(paths, filepath.Join(root, "build", name))
		}
	}

	paths = append(paths, name, "/usr/local/lib/"+name)
	if runtime.GOOS == "darwin" {
		return append(paths, "/opt/homebrew/lib/"+name)
	}
	return append(paths, "/usr/lib/"+name)
}

// moduleRoot returns the nearest directory at or above dir holding a go.mod,
// or "" when there is none.
func moduleRoot(dir string) string {
	for dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// cString copies a NUL-terminated string owned by the library, reading at
// most maxErrorLen bytes.
func cString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	n := 0
	for n < maxErrorLen && *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}
