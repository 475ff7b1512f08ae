package domain

// Snapshot is the full content of one host session: top-level key to value.
// Registry entries inside it are nested map[string]any values so that a snapshot
// survives a JSON round trip through any backend.
type Snapshot map[string]any

// NewSnapshot creates an empty snapshot.
func NewSnapshot() Snapshot {
	return make(Snapshot)
}

// Clone returns a deep copy of the snapshot.
// Nested maps and slices are copied; other values are shared.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Snapshot:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}
