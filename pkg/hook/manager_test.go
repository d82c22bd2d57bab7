package hook_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHookManager(t *testing.T) {
	manager := hook.NewHookManager()
	assert.NotNil(t, manager, "NewHookManager should return a non-nil manager")
}

func TestExecuteWithoutHook(t *testing.T) {
	manager := hook.NewHookManager()
	res, err := manager.Execute(hook.PreTransaction, hook.HookContext{Operation: "install"})
	require.NoError(t, err)
	assert.False(t, res.Abort)
}

func TestAddAndExecuteHook(t *testing.T) {
	manager := hook.NewHookManager()
	ctx := hook.HookContext{
		Operation: "install",
		Targets:   []string{"linux-zen", "linux-zen-headers"},
		Root:      "/",
		Vars: map[string]interface{}{
			"testVar": "testValue",
		},
	}

	err := manager.AddHook(hook.Hook{
		Type: hook.PreTransaction,
		Content: `
if len(targets) != 2 || targets[0] != "linux-zen" {
	err = "unexpected targets"
}
if testVar != "testValue" {
	err = "missing custom variable"
}`,
	})
	require.NoError(t, err)

	res, err := manager.Execute(hook.PreTransaction, ctx)
	require.NoError(t, err)
	assert.False(t, res.Abort)
}

func TestHookAbort(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.AddHook(hook.Hook{
		Type: hook.PreTransaction,
		Content: `
for t in targets {
	if t == "linux" {
		abort = true
	}
}`,
	}))

	res, err := manager.Execute(hook.PreTransaction, hook.HookContext{Operation: "remove", Targets: []string{"linux"}})
	require.NoError(t, err)
	assert.True(t, res.Abort)

	res, err = manager.Execute(hook.PreTransaction, hook.HookContext{Operation: "remove", Targets: []string{"linux-lts"}})
	require.NoError(t, err)
	assert.False(t, res.Abort)
}

func TestHookScriptErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "err variable set",
			content: `err = "bootloader config missing"`,
			wantErr: errors.ErrHookScript,
		},
		{
			name:    "compile error",
			content: `this is not tengo`,
			wantErr: errors.ErrHookExecution,
		},
		{
			name:    "post hook sees success",
			content: `if !success { err = "expected success" }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := hook.NewHookManager()
			require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PostTransaction, Content: tt.content}))

			_, err := manager.Execute(hook.PostTransaction, hook.HookContext{Operation: "commit", Success: true})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestHasAndRemoveHook(t *testing.T) {
	manager := hook.NewHookManager()
	assert.False(t, manager.HasHook(hook.PostTransaction))

	require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PostTransaction, Content: `// noop`}))
	assert.True(t, manager.HasHook(hook.PostTransaction))

	require.NoError(t, manager.RemoveHook(hook.PostTransaction))
	assert.False(t, manager.HasHook(hook.PostTransaction))

	assert.ErrorIs(t, manager.AddHook(hook.Hook{}), errors.ErrHookTypeEmpty)
	assert.ErrorIs(t, manager.RemoveHook(""), errors.ErrHookTypeEmpty)
}

func TestLoadHooksFromDir(t *testing.T) {
	hooksDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "pre-transaction.tengo"), []byte(`abort = operation == "remove"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "post-install.tengo"), []byte(`// ignored`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "README"), []byte(`ignored`), 0o644))

	manager := hook.NewHookManager()
	require.NoError(t, hook.LoadHooksFromDir(manager, hooksDir))

	assert.True(t, manager.HasHook(hook.PreTransaction))
	assert.False(t, manager.HasHook(hook.PostTransaction))

	res, err := manager.Execute(hook.PreTransaction, hook.HookContext{Operation: "remove"})
	require.NoError(t, err)
	assert.True(t, res.Abort)
}

func TestLoadHooksFromMissingDir(t *testing.T) {
	manager := hook.NewHookManager()
	assert.NoError(t, hook.LoadHooksFromDir(manager, filepath.Join(t.TempDir(), "nope")))
	assert.NoError(t, hook.LoadHooksFromDir(manager, ""))
}

func TestHookTemplate(t *testing.T) {
	tests := []struct {
		name     string
		hookType hook.HookType
		expected string
	}{
		{"PreTransaction", hook.PreTransaction, "Pre-transaction hook"},
		{"PostTransaction", hook.PostTransaction, "Post-transaction hook"},
		{"Unknown", hook.HookType("unknown"), "Unknown hook type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, hook.HookTemplate(tc.hookType), tc.expected)
		})
	}
}

func TestWriteTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hooks")

	path, err := hook.WriteTemplate(dir, hook.PostTransaction, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "post-transaction.tengo"), path)

	// templates only hold comments, so loading and running them is harmless
	manager := hook.NewHookManager()
	require.NoError(t, hook.LoadHooksFromDir(manager, dir))
	res, err := manager.Execute(hook.PostTransaction, hook.HookContext{Success: true})
	require.NoError(t, err)
	assert.False(t, res.Abort)

	require.NoError(t, os.WriteFile(path, []byte("// mine"), 0o644))
	_, err = hook.WriteTemplate(dir, hook.PostTransaction, false)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "// mine", string(content))

	_, err = hook.WriteTemplate("", hook.PreTransaction, false)
	assert.ErrorIs(t, err, errors.ErrInvalidPath)
}
