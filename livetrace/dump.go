package livetrace

import (
	"encoding/json"
	"time"
)

// traceEvent is one Chrome trace-event entry (spec.md §4.6).
type traceEvent struct {
	Name string  `json:"name"`
	Ph   string  `json:"ph"`
	TS   int64   `json:"ts"`
	PID  int     `json:"pid"`
	ID   string  `json:"id,omitempty"`
}

// DumpJSON serializes the registry's current snapshot into Chrome
// trace-event JSON: a "B" (begin) event at each live root's start, an "E"
// (end) event at its finish time (or now, if still open), and a trailing
// global instant marker.
func (r *Registry) DumpJSON(now time.Time) ([]byte, error) {
	refs := r.GetLiveReferences()
	events := make([]traceEvent, 0, len(refs)*2+1)
	for _, ref := range refs {
		finish := ref.Finish
		if ref.Open {
			finish = now
		}
		events = append(events,
			traceEvent{Name: ref.Name, Ph: "B", TS: ref.Start.UnixMicro(), PID: 1, ID: ref.TraceID},
			traceEvent{Name: ref.Name, Ph: "E", TS: finish.UnixMicro(), PID: 1, ID: ref.TraceID},
		)
	}
	events = append(events, traceEvent{Name: "Trace dump requested", Ph: "i", TS: now.UnixMicro(), PID: 1})
	return json.Marshal(events)
}
