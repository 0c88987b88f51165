package reactor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/wonop-io/rush/internal/status"
)

// exitReason is why one supervisor cycle ended.
type exitReason int

const (
	reasonChange exitReason = iota
	reasonStopped
)

const (
	monitorTick  = 10 * time.Millisecond
	launchStagger = 500 * time.Millisecond
	handleRecheck = 5 * time.Second
)

// Launch runs the interactive dev loop: ensure the shared docker network
// exists, start the file watcher, then repeatedly build, launch, and
// monitor every component until a terminal exit condition (interrupt, or
// an image finishing on its own) is reached. Returns when the loop exits;
// a significant file change never returns from Launch, it restarts the
// cycle in place.
func (r *Reactor) Launch(ctx context.Context, out io.Writer) error {
	if err := r.createNetwork(ctx, out); err != nil {
		return fmt.Errorf("reactor: %w", err)
	}
	defer func() {
		if err := r.deleteNetwork(context.Background(), out); err != nil {
			fmt.Fprintf(out, "reactor: failed to remove network: %v\n", err)
		}
	}()

	watcher, err := newFileWatcher(r.Config.ProductDir, r.ignoreMatcher)
	if err != nil {
		return fmt.Errorf("reactor: %w", err)
	}
	defer watcher.Close()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go watcher.run(watchCtx, r.ignoreMatcher, r.recordChange)

	for {
		reason, err := r.runCycle(ctx, out)
		if err != nil {
			return err
		}
		if reason != reasonChange {
			return nil
		}
	}
}

// runCycle is one supervisor cycle: kill-and-clean what's about to
// rebuild, build (with a blocking retry-on-change wait on failure), launch
// in dependency-priority order, monitor until a terminal condition, then
// shut down.
func (r *Reactor) runCycle(ctx context.Context, out io.Writer) (exitReason, error) {
	for _, img := range r.images {
		if img.DevIgnore || !img.ShouldRebuild() {
			continue
		}
		if err := img.KillAndClean(ctx, out); err != nil {
			fmt.Fprintf(out, "%s: cleanup before rebuild failed: %v\n", img.ComponentName, err)
		}
	}

	builtThisCycle, reason, err := r.buildCycle(ctx, out)
	if err != nil {
		return 0, err
	}
	if reason == reasonChange {
		return reasonChange, nil
	}
	if builtThisCycle == nil {
		// Interrupted while waiting for a failed build to be fixed.
		return reasonStopped, nil
	}

	statusChs, cancelLaunch, wg := r.launchImages(ctx, out, builtThisCycle)
	exit := r.monitor(cancelLaunch.ctx(), cancelLaunch.cancel, statusChs, out)
	r.waitForHandles(cancelLaunch.cancel, wg, out)
	return exit, nil
}

// buildCycle builds every should-rebuild, non-ignored image in insertion
// order. On a build failure it blocks until either a significant file
// change (returns reasonChange, so the caller restarts from
// kill_and_clean) or an interrupt (returns reasonStopped).
func (r *Reactor) buildCycle(ctx context.Context, out io.Writer) (map[string]bool, exitReason, error) {
	built := make(map[string]bool)

	for {
		failed := false
		for _, name := range r.names {
			img := r.imagesByName[name]
			if img.DevIgnore || !img.ShouldRebuild() {
				continue
			}

			bc, err := r.buildContextFor(ctx, img)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", name, err)
				failed = true
				break
			}
			if err := img.Build(ctx, out, bc, r.Tag, filepath.Join(r.ArtefactDir, name)); err != nil {
				fmt.Fprintf(out, "%s: build failed: %v\n", name, err)
				failed = true
				break
			}
			img.SetShouldRebuild(false)
			built[name] = true
		}

		if !failed {
			return built, reasonStopped, nil
		}

		switch r.waitForChangeOrInterrupt(ctx) {
		case reasonChange:
			return nil, reasonChange, nil
		default:
			return nil, reasonStopped, nil
		}
	}
}

// waitForChangeOrInterrupt blocks until either a significant change is
// observed or an interrupt/context cancellation arrives, polling every
// monitorTick.
func (r *Reactor) waitForChangeOrInterrupt(ctx context.Context) exitReason {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(monitorTick)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			return reasonStopped
		case <-ctx.Done():
			return reasonStopped
		case <-ticker.C:
			if r.checkSignificantChange() {
				return reasonChange
			}
		}
	}
}

// launchCancel bundles the per-launch context and its cancel func so it
// can be threaded through monitor/waitForHandles without a bare pair of
// return values at every call site.
type launchCancel struct {
	c      context.Context
	cancel context.CancelFunc
}

func (l launchCancel) ctx() context.Context { return l.c }

// launchImages computes each image's dependency-depth launch priority,
// spawns a goroutine per eligible image (non-ignored, built this cycle),
// staggered by launchStagger, and returns the per-image status channels
// plus a cancel func that broadcasts termination to every spawned
// goroutine.
func (r *Reactor) launchImages(ctx context.Context, out io.Writer, builtThisCycle map[string]bool) (map[string]chan status.Status, launchCancel, *sync.WaitGroup) {
	launchCtx, cancel := context.WithCancel(ctx)
	maxLabelLen := r.maxLabelLength()
	priorities := r.computePriorities()

	order := append([]string(nil), r.names...)
	sort.SliceStable(order, func(i, j int) bool {
		return priorities[order[i]] < priorities[order[j]]
	})

	statusChs := make(map[string]chan status.Status)
	var wg sync.WaitGroup

	for _, name := range order {
		img := r.imagesByName[name]
		if img.DevIgnore || !builtThisCycle[name] {
			continue
		}

		ch := make(chan status.Status, 16)
		statusChs[name] = ch
		r.setStatus(name, status.AwaitingStatus())

		wg.Add(1)
		go func(name string, statusCh chan status.Status) {
			defer wg.Done()
			img := r.imagesByName[name]
			img.Launch(launchCtx, r.writerFor(img, out), maxLabelLen, statusCh)
		}(name, ch)

		time.Sleep(launchStagger)
	}

	return statusChs, launchCancel{c: launchCtx, cancel: cancel}, &wg
}

// computePriorities is the longest-dependency-chain depth from each
// component, used to launch leaves (nothing depends on them) before the
// things that depend on them. Ties keep insertion order, which
// launchImages's stable sort preserves.
func (r *Reactor) computePriorities() map[string]int {
	memo := make(map[string]int, len(r.names))

	var depth func(name string, visiting map[string]bool) int
	depth = func(name string, visiting map[string]bool) int {
		if d, ok := memo[name]; ok {
			return d
		}
		if visiting[name] {
			return 0
		}
		img, ok := r.imagesByName[name]
		if !ok {
			return 0
		}
		visiting[name] = true
		max := 0
		for _, dep := range img.DependsOn {
			if d := depth(dep, visiting) + 1; d > max {
				max = d
			}
		}
		delete(visiting, name)
		memo[name] = max
		return max
	}

	out := make(map[string]int, len(r.names))
	for _, name := range r.names {
		out[name] = depth(name, make(map[string]bool))
	}
	return out
}

// monitor is the supervisor's steady-state loop: every monitorTick, drain
// status updates, check for a significant file change, and check for an
// image reaching a terminal state on its own. An interrupt signal enters
// graceful shutdown.
func (r *Reactor) monitor(ctx context.Context, cancel context.CancelFunc, statusChs map[string]chan status.Status, out io.Writer) exitReason {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(monitorTick)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			r.gracefulShutdown(cancel, statusChs, out, sigCh)
			return reasonStopped
		case <-ticker.C:
			r.drainStatuses(statusChs)
			if r.checkSignificantChange() {
				cancel()
				return reasonChange
			}
			if r.anyFinished(statusChs) {
				cancel()
				r.killAllContainers(out)
				return reasonStopped
			}
		}
	}
}

// gracefulShutdown broadcasts termination and waits up to ShutdownGrace for
// every image to reach a terminal status. A second interrupt, or the
// deadline elapsing, force-kills every container.
func (r *Reactor) gracefulShutdown(cancel context.CancelFunc, statusChs map[string]chan status.Status, out io.Writer, sigCh <-chan os.Signal) {
	cancel()

	deadline := time.After(r.ShutdownGrace)
	ticker := time.NewTicker(monitorTick)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			r.killAllContainers(out)
			return
		case <-deadline:
			r.printStatusTable(out)
			r.killAllContainers(out)
			return
		case <-ticker.C:
			r.drainStatuses(statusChs)
			if r.allFinished(statusChs) {
				return
			}
		}
	}
}

// killAllContainers force-kills and removes every component's container,
// used on every shutdown path regardless of how it was entered.
func (r *Reactor) killAllContainers(out io.Writer) {
	ctx := context.Background()
	for _, img := range r.images {
		if err := img.KillAndClean(ctx, out); err != nil {
			fmt.Fprintf(out, "%s: %v\n", img.ComponentName, err)
		}
	}
}

// waitForHandles joins every launched goroutine, rebroadcasting
// termination and force-killing containers every handleRecheck interval a
// goroutine fails to exit in time.
func (r *Reactor) waitForHandles(cancel context.CancelFunc, wg *sync.WaitGroup, out io.Writer) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			return
		case <-time.After(handleRecheck):
			cancel()
			r.killAllContainers(out)
		}
	}
}
