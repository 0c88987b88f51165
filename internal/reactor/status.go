package reactor

import (
	"fmt"
	"io"
	"sort"

	"github.com/wonop-io/rush/internal/status"
)

func (r *Reactor) setStatus(name string, s status.Status) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.statuses[name] = s
}

func (r *Reactor) statusSnapshot() map[string]status.Status {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	out := make(map[string]status.Status, len(r.statuses))
	for k, v := range r.statuses {
		out[k] = v
	}
	return out
}

// drainStatuses performs one non-blocking sweep over every launched
// image's status channel, recording whatever's available without
// blocking on any single one.
func (r *Reactor) drainStatuses(statusChs map[string]chan status.Status) {
	for name, ch := range statusChs {
	drain:
		for {
			select {
			case s := <-ch:
				r.setStatus(name, s)
			default:
				break drain
			}
		}
	}
}

// anyFinished reports whether at least one launched image's last known
// status is terminal.
func (r *Reactor) anyFinished(statusChs map[string]chan status.Status) bool {
	snapshot := r.statusSnapshot()
	for name := range statusChs {
		if snapshot[name].IsTerminal() {
			return true
		}
	}
	return false
}

// allFinished reports whether every launched image's last known status is
// terminal.
func (r *Reactor) allFinished(statusChs map[string]chan status.Status) bool {
	snapshot := r.statusSnapshot()
	for name := range statusChs {
		if !snapshot[name].IsTerminal() {
			return false
		}
	}
	return true
}

// printStatusTable writes a sorted component -> status table, used when a
// graceful shutdown misses its deadline.
func (r *Reactor) printStatusTable(out io.Writer) {
	snapshot := r.statusSnapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "component status at shutdown timeout:")
	for _, name := range names {
		fmt.Fprintf(out, "  %-24s %s\n", name, snapshot[name].Phase)
	}
}
