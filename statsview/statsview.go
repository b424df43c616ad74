//go:build statsview

package statsview

import (
	"log"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// refreshMs is how often the graphs sample the runtime. The emulation
// goroutine wakes every 16 ms, so a slower refresh keeps the sampler off
// its back.
const refreshMs = 500

// Launch serves runtime graphs on addr until the returned stop function is
// called.
func Launch(addr string) (stop func()) {
	viewer.SetConfiguration(viewer.WithAddr(addr), viewer.WithInterval(refreshMs))
	mgr := statsview.New()

	go func() {
		if err := mgr.Start(); err != nil {
			log.Printf("Warning: stats server on %s: %v", addr, err)
		}
	}()
	log.Printf("stats: graphs at http://%s/debug/statsview, profiles at http://%s/debug/pprof/", addr, addr)

	return mgr.Stop
}

// Available reports whether Launch does anything in this build.
func Available() bool {
	return true
}
