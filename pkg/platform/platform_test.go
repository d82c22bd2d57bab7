package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func fakeUname(machine string) func(*unix.Utsname) error {
	return func(u *unix.Utsname) error {
		copy(u.Machine[:], machine)
		return nil
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := map[string]string{
		"amd64":     "x86_64",
		"x86_64":    "x86_64",
		"arm64":     "aarch64",
		"aarch64":   "aarch64",
		"386":       "i686",
		" RISCV64 ": "riscv64",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeArch(in), in)
	}
}

func TestResolveArchitectures(t *testing.T) {
	orig := uname
	t.Cleanup(func() { uname = orig })
	uname = fakeUname("x86_64")

	assert.Equal(t, []string{"x86_64"}, ResolveArchitectures([]string{"auto"}))
	assert.Equal(t, []string{"x86_64", "x86_64_v3"}, ResolveArchitectures([]string{"auto", "x86_64_v3", "x86_64"}))
	assert.Equal(t, []string{"x86_64"}, ResolveArchitectures(nil))
}

func TestMachine_UnameFailure(t *testing.T) {
	orig := uname
	t.Cleanup(func() { uname = orig })
	uname = func(*unix.Utsname) error { return errors.New("no uname") }

	assert.Equal(t, "unknown", Machine())
}

func TestFilesystem(t *testing.T) {
	orig := statfs
	t.Cleanup(func() { statfs = orig })

	statfs = func(_ string, st *unix.Statfs_t) error {
		st.Type = magicZFS
		return nil
	}
	fs, err := Filesystem("/")
	assert.NoError(t, err)
	assert.Equal(t, FSZFS, fs)
	assert.True(t, RootIsZFS("/"))

	statfs = func(_ string, st *unix.Statfs_t) error {
		st.Type = magicBtrfs
		return nil
	}
	assert.False(t, RootIsZFS("/"))

	statfs = func(string, *unix.Statfs_t) error { return errors.New("denied") }
	fs, err = Filesystem("/")
	assert.Error(t, err)
	assert.Equal(t, FSUnknown, fs)
	assert.False(t, RootIsZFS("/"))
}

func TestIsRoot(t *testing.T) {
	orig := geteuid
	t.Cleanup(func() { geteuid = orig })

	geteuid = func() int { return 0 }
	assert.True(t, IsRoot())
	geteuid = func() int { return 1000 }
	assert.False(t, IsRoot())
}
