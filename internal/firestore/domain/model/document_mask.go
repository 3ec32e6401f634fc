package model

import (
	"cloud.google.com/go/firestore/apiv1/firestorepb"
)

// DocumentMask restricts the fields returned for a document. A nil
// *DocumentMask means no projection; a mask with no field paths asks for no
// fields at all.
type DocumentMask struct {
	fieldPaths []string
}

// NewDocumentMask validates fieldPaths. A nil slice returns a nil mask.
func NewDocumentMask(fieldPaths []string) (*DocumentMask, error) {
	if fieldPaths == nil {
		return nil, nil
	}
	paths := make([]string, 0, len(fieldPaths))
	for _, p := range fieldPaths {
		fp, err := NewFieldPath(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, fp.Raw())
	}
	return &DocumentMask{fieldPaths: paths}, nil
}

// FieldPaths returns a copy of the mask's field paths.
func (m *DocumentMask) FieldPaths() []string {
	if m == nil {
		return nil
	}
	return append([]string{}, m.fieldPaths...)
}

// Proto returns the wire form, or nil for a nil mask.
func (m *DocumentMask) Proto() *firestorepb.DocumentMask {
	if m == nil {
		return nil
	}
	return &firestorepb.DocumentMask{FieldPaths: m.FieldPaths()}
}
