package hashcheck

import "fmt"

// Result is the outcome of a single comparison.
type Result struct {
	Passed  bool
	Message string
}

// CompareBytes compares got against want byte by byte, stopping at the first difference.
func CompareBytes(got, want []byte) Result {
	for i := range min(len(got), len(want)) {
		if got[i] != want[i] {
			return Result{Message: fmt.Sprintf("byte %d differs: got %#02x, want %#02x", i, got[i], want[i])}
		}
	}
	if len(got) != len(want) {
		return Result{Message: fmt.Sprintf("length differs: got %d bytes, want %d", len(got), len(want))}
	}
	return Result{Passed: true, Message: "contents are equal"}
}

// CompareStrings compares got against want character by character, stopping at the first difference.
func CompareStrings(got, want string) Result {
	for i := range min(len(got), len(want)) {
		if got[i] != want[i] {
			return Result{Message: fmt.Sprintf("character %d differs: got %q, want %q", i, got[i], want[i])}
		}
	}
	if len(got) != len(want) {
		return Result{Message: fmt.Sprintf("length differs: got %d characters, want %d", len(got), len(want))}
	}
	return Result{Passed: true, Message: "contents are equal"}
}
