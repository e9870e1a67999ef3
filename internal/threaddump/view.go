package threaddump

import (
	"fmt"
	"strconv"

	"github.com/jvmlens/jvmlens/internal/agent"
)

type (
	// RenderedThread is one thread with its annotated frame lines.
	RenderedThread struct {
		Name               string   `json:"name"`
		ID                 string   `json:"id"`
		State              State    `json:"state"`
		StackTraceElements []string `json:"stack_trace_elements"`
	}

	// RenderedTransaction mirrors Transaction with rendered threads.
	RenderedTransaction struct {
		TraceID            string           `json:"trace_id"`
		TransactionType    string           `json:"transaction_type"`
		TransactionName    string           `json:"transaction_name"`
		TotalDurationNanos int64            `json:"total_duration_nanos"`
		Threads            []RenderedThread `json:"threads"`
	}

	// CycleThread is one member of a rendered deadlock cycle.
	CycleThread struct {
		Name  string `json:"name"`
		Desc1 string `json:"desc1"`
		Desc2 string `json:"desc2"`
	}

	// RenderedDump is the displayable form of a thread dump.
	RenderedDump struct {
		Transactions        []RenderedTransaction `json:"transactions"`
		UnmatchedThreads    []RenderedThread      `json:"unmatched_threads"`
		ThreadDumpingThread *RenderedThread       `json:"thread_dumping_thread,omitempty"`
		DeadlockedCycles    [][]CycleThread       `json:"deadlocked_cycles"`
		Jstack              agent.Availability    `json:"jstack"`
	}
)

// RenderDump annotates every thread of the dump and appends the deadlocked
// cycles found across all of them.
func RenderDump(dump *Dump) RenderedDump {
	out := RenderedDump{
		Transactions:     make([]RenderedTransaction, 0, len(dump.Transactions)),
		UnmatchedThreads: make([]RenderedThread, 0, len(dump.UnmatchedThreads)),
		Jstack:           jstackAvailability(dump.JstackAvailable),
	}
	for _, tx := range dump.Transactions {
		rtx := RenderedTransaction{
			TraceID:            tx.TraceID,
			TransactionType:    tx.TransactionType,
			TransactionName:    tx.TransactionName,
			TotalDurationNanos: tx.TotalDurationNanos,
			Threads:            make([]RenderedThread, 0, len(tx.Threads)),
		}
		for _, t := range tx.Threads {
			rtx.Threads = append(rtx.Threads, renderThread(t))
		}
		out.Transactions = append(out.Transactions, rtx)
	}
	for _, t := range dump.UnmatchedThreads {
		out.UnmatchedThreads = append(out.UnmatchedThreads, renderThread(t))
	}
	if dump.ThreadDumpingThread != nil {
		rt := renderThread(*dump.ThreadDumpingThread)
		out.ThreadDumpingThread = &rt
	}
	out.DeadlockedCycles = renderDeadlockedCycles(dump.AllThreads())
	return out
}

// jstackAvailability reports whether the monitored process can produce full
// jstack-style dumps, with the reason when it cannot.
func jstackAvailability(available bool) agent.Availability {
	if available {
		return agent.Availability{Available: true}
	}
	return agent.Availability{Reason: "jstack is not available in the monitored process"}
}

func renderThread(t Thread) RenderedThread {
	rt := RenderedThread{
		Name:               t.Name,
		ID:                 strconv.FormatInt(t.ID, 10),
		State:              t.State,
		StackTraceElements: make([]string, 0, len(t.StackTraceElements)),
	}
	for i, ste := range t.StackTraceElements {
		rt.StackTraceElements = append(rt.StackTraceElements, "at "+formatFrame(ste))
		if i == 0 {
			if desc, ok := waitingDesc(t); ok {
				rt.StackTraceElements = append(rt.StackTraceElements, desc)
			}
		}
		for _, monitor := range ste.MonitorInfoList {
			rt.StackTraceElements = append(rt.StackTraceElements, monitorDesc("locked on", monitor))
		}
	}
	return rt
}

// waitingDesc synthesizes the lock-wait annotation shown under a thread's
// top frame. Blocked threads are "waiting to lock", every other waiting
// state is "waiting on". Threads from agents without structured lock info
// fall back to the raw lock name.
func waitingDesc(t Thread) (string, bool) {
	operation := "waiting on"
	if t.State == StateBlocked {
		operation = "waiting to lock"
	}
	if t.LockInfo != nil {
		return monitorDesc(operation, *t.LockInfo), true
	}
	if t.LockName != "" {
		return fmt.Sprintf("- %s %s", operation, t.LockName), true
	}
	return "", false
}

func renderDeadlockedCycles(threads []Thread) [][]CycleThread {
	blocked := make(map[int64]Thread)
	for _, t := range threads {
		if t.LockOwnerID != nil {
			blocked[t.ID] = t
		}
	}
	cycles := FindDeadlockedCycles(threads)
	rendered := make([][]CycleThread, 0, len(cycles))
	for _, cycle := range cycles {
		members := make([]CycleThread, 0, len(cycle))
		for _, t := range cycle {
			owner := mustBlocked(blocked, *t.LockOwnerID)
			var lock LockInfo
			if t.LockInfo != nil {
				lock = *t.LockInfo
			}
			members = append(members, CycleThread{
				Name:  t.Name,
				Desc1: fmt.Sprintf("waiting to lock %s@%s", lock.ClassName, hexHash(lock.IdentityHashCode)),
				Desc2: fmt.Sprintf("which is held by %q", owner.Name),
			})
		}
		rendered = append(rendered, members)
	}
	return rendered
}

func monitorDesc(operation string, l LockInfo) string {
	return fmt.Sprintf("- %s %s@%s", operation, l.ClassName, hexHash(l.IdentityHashCode))
}

// hexHash formats an identity hash code the way the JVM prints it: as an
// unsigned 32-bit hex string.
func hexHash(h int64) string {
	return strconv.FormatUint(uint64(uint32(h)), 16)
}

// formatFrame renders a frame like java.lang.StackTraceElement.toString.
func formatFrame(ste StackTraceElement) string {
	location := "Unknown Source"
	switch {
	case ste.LineNumber == -2:
		location = "Native Method"
	case ste.FileName != "" && ste.LineNumber >= 0:
		location = fmt.Sprintf("%s:%d", ste.FileName, ste.LineNumber)
	case ste.FileName != "":
		location = ste.FileName
	}
	return fmt.Sprintf("%s.%s(%s)", ste.ClassName, ste.MethodName, location)
}
