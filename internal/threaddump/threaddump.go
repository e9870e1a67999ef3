// Package threaddump models a point-in-time thread dump snapshot and turns
// it into the annotated view consumed by external rendering, including the
// deadlocked cycles among blocked threads.
package threaddump

// State is a JVM thread state.
type State string

const (
	StateRunnable     State = "RUNNABLE"
	StateBlocked      State = "BLOCKED"
	StateWaiting      State = "WAITING"
	StateTimedWaiting State = "TIMED_WAITING"
	StateNew          State = "NEW"
	StateTerminated   State = "TERMINATED"
)

type (
	// LockInfo identifies a monitor by class and identity hash code.
	LockInfo struct {
		ClassName        string `json:"class_name"`
		IdentityHashCode int64  `json:"identity_hash_code"`
	}

	// StackTraceElement is one frame of a dumped thread, with the monitors
	// the frame holds.
	StackTraceElement struct {
		ClassName       string     `json:"class_name"`
		MethodName      string     `json:"method_name"`
		FileName        string     `json:"file_name,omitempty"`
		LineNumber      int        `json:"line_number"`
		MonitorInfoList []LockInfo `json:"monitor_info_list,omitempty"`
	}

	// Thread is a single thread of a dump. LockOwnerID is set only when the
	// thread is blocked acquiring a lock held by another live thread.
	// LockName carries the raw lock description sent by agents predating
	// structured lock info; it never participates in deadlock detection.
	Thread struct {
		ID                 int64               `json:"id"`
		Name               string              `json:"name"`
		State              State               `json:"state"`
		LockName           string              `json:"lock_name,omitempty"`
		LockOwnerID        *int64              `json:"lock_owner_id,omitempty"`
		LockInfo           *LockInfo           `json:"lock_info,omitempty"`
		StackTraceElements []StackTraceElement `json:"stack_trace_elements"`
	}

	// Transaction groups the threads currently working on one traced
	// transaction.
	Transaction struct {
		TraceID            string   `json:"trace_id"`
		TransactionType    string   `json:"transaction_type"`
		TransactionName    string   `json:"transaction_name"`
		TotalDurationNanos int64    `json:"total_duration_nanos"`
		Threads            []Thread `json:"threads"`
	}

	// Dump is a complete thread dump snapshot, immutable once decoded.
	Dump struct {
		Transactions        []Transaction `json:"transactions"`
		UnmatchedThreads    []Thread      `json:"unmatched_threads"`
		ThreadDumpingThread *Thread       `json:"thread_dumping_thread,omitempty"`
		JstackAvailable     bool          `json:"jstack_available"`
	}
)

// AllThreads flattens every thread of the dump, transaction threads first,
// then unmatched threads, then the dumping thread itself.
func (d *Dump) AllThreads() []Thread {
	var all []Thread
	for _, tx := range d.Transactions {
		all = append(all, tx.Threads...)
	}
	all = append(all, d.UnmatchedThreads...)
	if d.ThreadDumpingThread != nil {
		all = append(all, *d.ThreadDumpingThread)
	}
	return all
}
