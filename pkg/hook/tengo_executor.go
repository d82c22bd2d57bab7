package hook

import (
	"sync"

	"github.com/cperrin88/kman/pkg/errors"
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	scripts map[HookType]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
	}
}

// Execute runs the specified hook type with the given context.
func (e *TengoExecutor) Execute(hookType HookType, ctx HookContext) (Result, error) {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return Result{}, nil
	}

	scriptInstance := tengo.NewScript([]byte(script))
	scriptInstance.SetImports(stdlib.GetModuleMap("fmt", "os", "strings", "text", "times"))

	targets := make([]interface{}, 0, len(ctx.Targets))
	for _, t := range ctx.Targets {
		targets = append(targets, t)
	}

	_ = scriptInstance.Add("operation", ctx.Operation)
	_ = scriptInstance.Add("targets", targets)
	_ = scriptInstance.Add("root", ctx.Root)
	_ = scriptInstance.Add("success", ctx.Success)
	_ = scriptInstance.Add("abort", false)
	_ = scriptInstance.Add("err", "")

	for k, v := range ctx.Vars {
		if err := scriptInstance.Add(k, v); err != nil {
			return Result{}, errors.Wrapf(errors.ErrHookExecution, "%s: variable %q: %v", hookType, k, err)
		}
	}

	compiled, err := scriptInstance.Run()
	if err != nil {
		return Result{}, errors.Wrapf(errors.ErrHookExecution, "%s: %v", hookType, err)
	}

	res := Result{Abort: compiled.Get("abort").Bool()}

	switch v := compiled.Get("err").Value().(type) {
	case error:
		return res, errors.Wrap(errors.ErrHookScript, v.Error())
	case string:
		if v != "" {
			return res, errors.Wrap(errors.ErrHookScript, v)
		}
	}

	return res, nil
}

// AddScript adds or updates a script for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// RemoveScript removes the script for the specified hook type.
func (e *TengoExecutor) RemoveScript(hookType HookType) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, hookType)
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
