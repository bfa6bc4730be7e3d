// Package resource loads file-backed values referenced from scene files by
// path.
package resource

// Resource is a value that was loaded from a file and is persisted as its
// path.
type Resource interface {
	ResourcePath() string
}

// IsResource reports whether v is a resource with a known path.
func IsResource(v any) (string, bool) {
	r, ok := v.(Resource)
	if !ok || r == nil {
		return "", false
	}
	path := r.ResourcePath()
	return path, path != ""
}
