//go:build !statsview

package statsview

import "testing"

func TestLaunch_StubStops(t *testing.T) {
	if Available() {
		t.Fatal("stub build reports statsview available")
	}
	stop := Launch("localhost:0")
	if stop == nil {
		t.Fatal("Launch returned nil stop")
	}
	stop()
}
