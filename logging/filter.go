package logging

// redactSet checks membership in a small key block-list. Built once per
// Handle from settings.RedactKeys and shared by every child logger derived
// from it.
type redactSet map[string]struct{}

func newRedactSet(keys []string) redactSet {
	if len(keys) == 0 {
		return nil
	}
	s := make(redactSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s redactSet) drop(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s[key]
	return ok
}

// filterRedact removes fields whose key is in the redact set. Applied to
// both the per-record fields and the logger's accumulated context fields,
// independently, before dedup ever sees them (spec.md §4.3 stage 1).
func filterRedact(fields []Field, redact redactSet) []Field {
	if redact == nil {
		return fields
	}
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if redact.drop(f.Key) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// mergeDedup assembles the final field list for one record: per-record
// fields scanned newest-first (i.e. in reverse call order, since a caller
// passing k=>1, k=>2 means 2 is the "more recently added" value), followed
// by the logger's context fields which are already stored newest-first.
// The first occurrence of a key wins; later (older) duplicates are dropped.
// This is a fresh seen-set per record (spec.md §4.3 stage 2) — dedup never
// spans across records.
func mergeDedup(recordFields, contextFields []Field) []Field {
	seen := make(map[string]struct{}, len(recordFields)+len(contextFields))
	out := make([]Field, 0, len(recordFields)+len(contextFields))
	for i := len(recordFields) - 1; i >= 0; i-- {
		f := recordFields[i]
		if _, dup := seen[f.Key]; dup {
			continue
		}
		seen[f.Key] = struct{}{}
		out = append(out, f)
	}
	for _, f := range contextFields {
		if _, dup := seen[f.Key]; dup {
			continue
		}
		seen[f.Key] = struct{}{}
		out = append(out, f)
	}
	return out
}
