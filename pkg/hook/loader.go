package hook

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/fsutil"
)

const hookFileExtension = ".tengo"

// LoadHooksFromDir registers every <hook-type>.tengo script found in dir.
// A missing directory is not an error.
func LoadHooksFromDir(manager HookManager, dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(errors.ErrHookLoad, "reading hooks directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != hookFileExtension {
			continue
		}

		hookType := HookType(strings.TrimSuffix(entry.Name(), hookFileExtension))
		switch hookType {
		case PreTransaction, PostTransaction:
		default:
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return errors.Wrapf(errors.ErrHookLoad, "reading %s: %v", entry.Name(), err)
		}

		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return errors.Wrapf(err, "adding hook %s", hookType)
		}
	}

	return nil
}

// HookTemplate generates a template for a hook script.
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PreTransaction:
		return `// Pre-transaction hook
// Runs before kman starts an install, remove or commit cycle.
// Available variables:
// - operation: string - "install", "remove" or "commit"
// - targets: array - package names about to change
// - root: string - installation root
// Set abort = true to cancel the cycle, or err = "..." to report a problem.

/*
for t in targets {
    if t == "linux" {
        abort = true
    }
}
*/`

	case PostTransaction:
		return `// Post-transaction hook
// Runs after a cycle finished, whether or not it succeeded.
// Available variables: same as pre-transaction, plus
// - success: bool - whether the transaction was applied

/*
os := import("os")
if success {
    cmd := os.exec("grub-mkconfig", "-o", "/boot/grub/grub.cfg")
    cmd.run()
}
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}

// WriteTemplate writes the template of hookType to dir as <hook-type>.tengo
// and returns its path. An existing script is kept unless force is set.
func WriteTemplate(dir string, hookType HookType, force bool) (string, error) {
	if dir == "" {
		return "", errors.Wrap(errors.ErrInvalidPath, "hooks directory is not set")
	}
	path := filepath.Join(dir, string(hookType)+hookFileExtension)
	if _, err := os.Stat(path); err == nil && !force {
		return path, nil
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", errors.Wrapf(errors.ErrHookLoad, "creating %s: %v", dir, err)
	}
	if err := fsutil.WriteFileAtomic(path, []byte(HookTemplate(hookType)+"\n"), fsutil.FileModeDefault); err != nil {
		return "", errors.Wrapf(errors.ErrHookLoad, "writing %s: %v", path, err)
	}
	return path, nil
}
