package model

import "time"

// GeoPoint represents a geographical point.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DocumentSnapshot is a document as read at ReadTime. Snapshots produced
// by a batch get always exist; missing documents yield no snapshot.
type DocumentSnapshot struct {
	Ref        *DocumentRef
	Exists     bool
	ReadTime   time.Time
	CreateTime time.Time
	UpdateTime time.Time

	data map[string]interface{}
}

// NewDocumentSnapshot builds a snapshot around already decoded data.
func NewDocumentSnapshot(ref *DocumentRef, data map[string]interface{}, exists bool, readTime, createTime, updateTime time.Time) *DocumentSnapshot {
	return &DocumentSnapshot{
		Ref:        ref,
		Exists:     exists,
		ReadTime:   readTime,
		CreateTime: createTime,
		UpdateTime: updateTime,
		data:       data,
	}
}

// Data returns a deep copy of the document's fields. Nested maps, arrays
// and byte slices are copied too, so callers may modify the result.
func (s *DocumentSnapshot) Data() map[string]interface{} {
	return copyFields(s.data)
}

// Get returns the value at a dot-delimited field path.
func (s *DocumentSnapshot) Get(fieldPath string) (interface{}, bool) {
	fp, err := NewFieldPath(fieldPath)
	if err != nil {
		return nil, false
	}
	v, ok := fp.Lookup(s.data)
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyFields(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, elem := range t {
			out[i] = copyValue(elem)
		}
		return out
	case []byte:
		return append([]byte(nil), t...)
	default:
		return v
	}
}
