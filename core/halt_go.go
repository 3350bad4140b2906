//go:build !tinygo

package core

var (
	haltEnterHook = func() {}
	haltWaitHook  = func() { select {} }
)

// SetHaltHooks replaces what the halt loop does on regular Go.
// enter runs first (mask everything), wait is the loop body and must not
// return to the faulting code; the simulator uses runtime.Goexit.
func SetHaltHooks(enter, wait func()) {
	if enter == nil {
		enter = func() {}
	}
	if wait == nil {
		wait = func() { select {} }
	}
	haltEnterHook = enter
	haltWaitHook = wait
}

func haltEnter() {
	haltEnterHook()
}

func haltWait() {
	haltWaitHook()
}
