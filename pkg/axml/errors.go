package axml

import "fmt"

// MalformedManifestError reports a structural violation in the binary XML
// stream: a chunk running past the buffer, an out-of-range string pool
// index, or unbalanced element tags.
type MalformedManifestError struct {
	Reason string
}

func (e *MalformedManifestError) Error() string {
	return "malformed binary manifest: " + e.Reason
}

// MissingFieldError reports a manifest fact that is structurally absent and
// has no defined default, such as a manifest without a package attribute.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("manifest has no %s", e.Field)
}
