package concurrency

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// SafeGo runs a function in a goroutine with panic recovery.
func SafeGo(fn func(), onPanic func(interface{})) {
	go func() {
		defer Recover("goroutine", onPanic)
		fn()
	}()
}

// Recover is meant to be deferred. It logs the panic with its stack and
// hands the value to onPanic when set.
func Recover(scope string, onPanic func(interface{})) {
	if r := recover(); r != nil {
		slog.Error("Panic recovered", "scope", scope, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		if onPanic != nil {
			onPanic(r)
		}
	}
}
