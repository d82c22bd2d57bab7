package hook

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PreTransaction  HookType = "pre-transaction"
	PostTransaction HookType = "post-transaction"
)

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	// Operation is "install", "remove" or "commit".
	Operation string
	Targets   []string
	Root      string
	// Success is only meaningful for post-transaction hooks.
	Success bool
	Vars    map[string]interface{}
}

// Result is what a hook script left behind after running.
type Result struct {
	// Abort is set by a pre-transaction script assigning `abort = true`.
	Abort bool
}

// HookManager defines the interface for managing hooks.
//
//go:generate mockgen -destination=./mocks/hook.go -package=mocks . HookManager
type HookManager interface {
	// Execute runs the specified hook type with the given context
	Execute(hookType HookType, ctx HookContext) (Result, error)

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// RemoveHook removes a hook of the specified type
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
