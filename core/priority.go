package core

// Priority is a static interrupt priority level.
// A context may only be preempted by a context with a strictly larger Priority.
type Priority uint8

const (
	// IdlePriority is the level of the idle context; every interrupt preempts it
	IdlePriority Priority = 0

	// MaxPriority masks every maskable interrupt source
	MaxPriority Priority = 15
)

// Context is an execution context: the idle loop or one interrupt handler
type Context struct {
	Name     string
	Priority Priority
}

// IdleContext is the non-interrupt context that performs setup and then waits
var IdleContext = Context{Name: "idle", Priority: IdlePriority}

// PriorityMask is the running priority threshold of the core.
// While the level is L, no interrupt with priority <= L is taken.
type PriorityMask interface {
	Level() Priority
	SetLevel(p Priority)
}
