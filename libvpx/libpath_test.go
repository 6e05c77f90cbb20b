//go:build (darwin || linux) && !cgo && !novpx

package libvpx

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"unsafe"
)

func TestLibCandidates(t *testing.T) {
	const name = "libmedia_vpxenc.so"
	dir := t.TempDir()

	tests := []struct {
		name   string
		env    string
		exeDir string
		wd     string
		first  []string
	}{
		{"env file", "/opt/vpx/custom.so", "", "", []string{"/opt/vpx/custom.so"}},
		{"env dir", dir, "", "", []string{filepath.Join(dir, name)}},
		{"exe dir", "", "/srv/bin", "", []string{"/srv/bin/" + name, "/srv/lib/" + name}},
		{"working dir", "", "", "/work", []string{"/work/build/" + name, "/build/" + name}},
		{"system only", "", "", "", []string{name, "/usr/local/lib/" + name}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := libCandidates(name, tt.env, tt.exeDir, tt.wd)
			if len(got) < len(tt.first) {
				t.Fatalf("got %v", got)
			}
			for i, want := range tt.first {
				if got[i] != want {
					t.Errorf("path %d = %q, want %q", i, got[i], want)
				}
			}
		})
	}
}

func TestLibCandidatesModuleRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wd := filepath.Join(root, "cmd", "tool")
	if err := os.MkdirAll(wd, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := moduleRoot(wd); got != root {
		t.Errorf("moduleRoot = %q, want %q", got, root)
	}
	want := filepath.Join(root, "build", "lib.so")
	found := false
	for _, p := range libCandidates("lib.so", "", "", wd) {
		found = found || p == want
	}
	if !found {
		t.Errorf("%s not searched", want)
	}
}

func TestCString(t *testing.T) {
	msg := []byte("encoder not ready\x00trailing")
	if got := cString(uintptr(unsafe.Pointer(&msg[0]))); got != "encoder not ready" {
		t.Errorf("cString = %q", got)
	}
	runtime.KeepAlive(msg)

	long := []byte(strings.Repeat("x", maxErrorLen+10) + "\x00")
	if got := cString(uintptr(unsafe.Pointer(&long[0]))); len(got) != maxErrorLen {
		t.Errorf("unterminated read %d bytes, want %d", len(got), maxErrorLen)
	}
	runtime.KeepAlive(long)

	if cString(0) != "" {
		t.Error("nil pointer gave a string")
	}
}
