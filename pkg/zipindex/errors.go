package zipindex

import "fmt"

// ContainerError means the input is not an openable ZIP container: the
// end-of-central-directory record is missing, the directory is unparseable,
// or the file is too short to hold either.
type ContainerError struct {
	Reason string
	Err    error
}

func (e *ContainerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("container: %s: %v", e.Reason, e.Err)
	}
	return "container: " + e.Reason
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when a named entry does not exist in the
// central directory.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry %q not found in archive", e.Name)
}

// CorruptEntryError means an entry is present but its data cannot be
// trusted: the local header disagrees with the central directory, the
// compressed stream is broken, or the decompressed output fails the
// recorded size/checksum.
type CorruptEntryError struct {
	Name   string
	Reason string
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("corrupt entry %q: %s", e.Name, e.Reason)
}
