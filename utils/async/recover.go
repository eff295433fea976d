package async

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

var ErrPanic = errors.New("goroutine panicked")

// recoverPanic logs a recovered panic with its stack and hands it to onPanic as an error.
func recoverPanic(name string, onPanic func(error)) {
	if r := recover(); r != nil {
		log.Error().
			Str("goroutine", name).
			Interface("panic", r).
			Bytes("stack", debug.Stack()).
			Msg("goroutine panicked")
		if onPanic != nil {
			onPanic(fmt.Errorf("%w: %s: %v", ErrPanic, name, r))
		}
	}
}

// Go runs fn on a new goroutine; a panic is logged instead of crashing the process.
func Go(name string, fn func()) {
	GoWithRecover(name, fn, nil)
}

// GoWithRecover is Go, additionally reporting a panic to onPanic after it has been logged.
// onPanic runs on the panicking goroutine.
func GoWithRecover(name string, fn func(), onPanic func(error)) {
	go func() {
		defer recoverPanic(name, onPanic)
		fn()
	}()
}
