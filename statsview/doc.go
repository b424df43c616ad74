// Package statsview serves runtime graphs and pprof endpoints while the
// player runs, so the emulation goroutine's allocation and GC behaviour can
// be watched against audio underruns. It is only functional when built
// with the statsview tag:
//
//	go build -tags statsview
//	emcms -statsview localhost:12610
package statsview
