// Package console renders replay progress and the final run summary to
// a terminal.
package console

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"webreplay/domain/entities"
)

// Reporter prints one line per action and a summary table when the run
// completes. Safe for use from a single run; the mutex only guards
// interleaving with a concurrent second run sharing the writer.
type Reporter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{out: out, verbose: verbose}
}

func (r *Reporter) OnStart(testName string, actionsTotal int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "replaying %s (%d actions)\n", testName, actionsTotal)
}

func (r *Reporter) OnActionStart(action entities.Action, index int) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  [%d] %s ...\n", index+1, action.Kind())
}

func (r *Reporter) OnActionSuccess(action entities.Action, index int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  [%d] %s ok (%s)\n", index+1, action.Kind(), duration.Round(time.Millisecond))
}

func (r *Reporter) OnActionSkipped(action entities.Action, index int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  [%d] %s skipped: %s\n", index+1, action.Kind(), reason)
}

func (r *Reporter) OnActionError(action entities.Action, index int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  [%d] %s failed: %v\n", index+1, action.Kind(), err)
}

func (r *Reporter) OnComplete(result *entities.RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out)
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Test", "Status", "Executed", "Failed", "Skipped", "Duration"})
	table.Append([]string{
		result.TestName,
		string(result.Status),
		strconv.Itoa(result.ActionsExecuted),
		strconv.Itoa(result.ActionsFailed),
		strconv.Itoa(result.ActionsSkipped),
		result.Duration.Round(time.Millisecond).String(),
	})
	table.SetBorder(false)
	table.Render()

	for _, e := range result.Errors {
		fmt.Fprintf(r.out, "  error: %s %s: %s\n", e.ActionType, e.ActionID, e.Error)
	}
	if result.VideoPath != "" {
		fmt.Fprintf(r.out, "  video: %s\n", result.VideoPath)
	}
}
