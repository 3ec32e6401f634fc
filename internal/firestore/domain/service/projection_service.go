package service

import (
	"firestore-client/internal/firestore/domain/model"
)

// ProjectionService applies a document mask to stored document data, for
// transports that have to project fields themselves.
type ProjectionService interface {
	// ApplyProjection returns data restricted to the mask's field paths. A nil
	// mask returns data unchanged; an empty mask returns no fields.
	ApplyProjection(data map[string]interface{}, mask *model.DocumentMask) map[string]interface{}
}

type projectionService struct{}

// NewProjectionService creates a new projection service
func NewProjectionService() ProjectionService {
	return &projectionService{}
}

func (s *projectionService) ApplyProjection(data map[string]interface{}, mask *model.DocumentMask) map[string]interface{} {
	if mask == nil {
		return data
	}

	projected := make(map[string]interface{})
	for _, raw := range mask.FieldPaths() {
		fp, err := model.NewFieldPath(raw)
		if err != nil {
			continue
		}
		if value, ok := fp.Lookup(data); ok {
			setFieldByPath(projected, fp.Segments(), value)
		}
	}
	return projected
}

// setFieldByPath creates intermediate maps as needed
func setFieldByPath(fields map[string]interface{}, segments []string, value interface{}) {
	current := fields
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}
