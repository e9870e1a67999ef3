// Package heaphistogram summarizes a heap histogram snapshot.
package heaphistogram

type (
	// ClassInfo is one class row of a heap histogram.
	ClassInfo struct {
		ClassName string `json:"class_name"`
		Bytes     int64  `json:"bytes"`
		Count     int64  `json:"count"`
	}

	// Histogram is the raw snapshot handed in by the acquisition layer.
	Histogram struct {
		Items []ClassInfo `json:"items"`
	}

	// View echoes the items with their grand totals appended.
	View struct {
		Items      []ClassInfo `json:"items"`
		TotalBytes int64       `json:"total_bytes"`
		TotalCount int64       `json:"total_count"`
	}
)

// Render totals up the histogram.
func Render(h *Histogram) View {
	view := View{Items: make([]ClassInfo, 0, len(h.Items))}
	for _, item := range h.Items {
		view.Items = append(view.Items, item)
		view.TotalBytes += item.Bytes
		view.TotalCount += item.Count
	}
	return view
}
