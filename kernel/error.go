package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error and compared by identity; they can be created and
// returned before the Go allocator is available, which rules out errors.New
// and fmt.Errorf on the boot path.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface. The returned string is prefixed by
// the originating module so it remains meaningful once the error is wrapped
// by code running on a hosted Go runtime.
func (e *Error) Error() string {
	if e.Module == "" {
		return e.Message
	}

	return e.Module + ": " + e.Message
}
