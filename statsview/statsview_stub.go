//go:build !statsview

package statsview

// Launch does nothing without the statsview build tag.
func Launch(addr string) (stop func()) {
	return func() {}
}

// Available reports whether Launch does anything in this build.
func Available() bool {
	return false
}
