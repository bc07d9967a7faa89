package ctxt

import "testing"

func TestOpenNoDriver(t *testing.T) {
	// No backend is ever statically linked into this module, so an
	// empty registry (the default in a unit test binary) must fail
	// with errNoDriver rather than panic.
	if err := Open(""); err != errNoDriver {
		t.Errorf("Open(\"\") of empty registry: got %v, want %v", err, errNoDriver)
	}
	if Driver() != nil {
		t.Error("Driver() must remain nil after a failed Open")
	}
	if GPU() != nil {
		t.Error("GPU() must remain nil after a failed Open")
	}
}
