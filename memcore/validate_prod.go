//go:build !debug_mem_core

package memcore

// ValidationEnabled reports whether the debug_mem_core build tag is present
// and DebugValidate/DebugCheckPow2 are live.
const ValidationEnabled = false

// DebugValidate calls Validate on the provided object and panics if any error
// is returned. This method no-ops unless the debug_mem_core build tag is
// present.
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 verifies that the numerical value passed in is a positive
// power of two, and panics if it is not. This method no-ops unless the
// debug_mem_core build tag is present.
func DebugCheckPow2[T ~int | ~uint](value T, name string) {
}
