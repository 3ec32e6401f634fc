package firestore

import (
	"fmt"
	"regexp"
	"strings"

	"firestore-client/internal/shared/errors"
)

const (
	// DocumentPathDelimiter separates collection and document ids.
	DocumentPathDelimiter = "/"
	// FieldPathDelimiter separates nested field names.
	FieldPathDelimiter = "."
	// DefaultDatabase is the database used when none is configured.
	DefaultDatabase = "(default)"

	maxIDLength = 1500
)

// PathInfo represents parsed Firestore path information
type PathInfo struct {
	ProjectID    string
	DatabaseID   string
	DocumentPath string
	IsDocument   bool
	IsCollection bool
	Segments     []string
}

// Firestore path pattern: projects/{PROJECT_ID}/databases/{DATABASE_ID}/documents/{DOCUMENT_PATH}
var firestorePathRegex = regexp.MustCompile(`^projects/([^/]+)/databases/([^/]+)/documents/(.+)$`)

// SplitPath turns caller input into path segments. A single argument is a
// "/"-delimited path; several arguments are taken as pre-split segments.
// Segments are returned as given: empty segments survive and are rejected
// later, when a reference is built from them.
func SplitPath(parts ...string) []string {
	if len(parts) == 1 {
		return strings.Split(parts[0], DocumentPathDelimiter)
	}
	return append([]string{}, parts...)
}

// JoinFieldPath joins nested field names with ".". Names are not escaped.
func JoinFieldPath(names ...string) string {
	return strings.Join(names, FieldPathDelimiter)
}

// BuildDatabasePath returns projects/{project}/databases/{database}.
func BuildDatabasePath(projectID, databaseID string) string {
	return fmt.Sprintf("projects/%s/databases/%s", projectID, databaseID)
}

// BuildFirestorePath constructs a fully-qualified path from components
func BuildFirestorePath(projectID, databaseID, documentPath string) string {
	return BuildDatabasePath(projectID, databaseID) + "/documents/" + documentPath
}

// BuildDocumentPath constructs a relative path from segments
func BuildDocumentPath(segments ...string) string {
	return strings.Join(segments, DocumentPathDelimiter)
}

// ParseFirestorePath parses a fully-qualified resource name as returned by
// the service.
func ParseFirestorePath(path string) (*PathInfo, error) {
	if path == "" {
		return nil, errors.NewValidationError("path cannot be empty")
	}

	matches := firestorePathRegex.FindStringSubmatch(path)
	if len(matches) != 4 {
		return nil, errors.NewValidationError("invalid Firestore path format").
			WithDetail("expected_format", "projects/{PROJECT_ID}/databases/{DATABASE_ID}/documents/{DOCUMENT_PATH}").
			WithDetail("provided_path", path).
			WithCause(errors.ErrInvalidPath)
	}

	projectID := matches[1]
	databaseID := matches[2]
	documentPath := matches[3]

	if !IsValidID(projectID) {
		return nil, errors.NewValidationError("invalid project ID").
			WithDetail("project_id", projectID).
			WithCause(errors.ErrInvalidProjectID)
	}
	if !IsValidID(databaseID) {
		return nil, errors.NewValidationError("invalid database ID").
			WithDetail("database_id", databaseID).
			WithCause(errors.ErrInvalidDatabaseID)
	}

	segments := strings.Split(documentPath, DocumentPathDelimiter)
	if err := ValidateSegments(segments); err != nil {
		return nil, err
	}

	return &PathInfo{
		ProjectID:    projectID,
		DatabaseID:   databaseID,
		DocumentPath: documentPath,
		IsDocument:   len(segments)%2 == 0,
		IsCollection: len(segments)%2 == 1,
		Segments:     segments,
	}, nil
}

// ValidateSegments checks that a relative path is non-empty and that every
// segment is a usable id.
func ValidateSegments(segments []string) error {
	if len(segments) == 0 {
		return errors.NewValidationError("path cannot be empty").WithCause(errors.ErrInvalidPath)
	}
	for i, segment := range segments {
		if !IsValidID(segment) {
			return errors.NewValidationError("invalid path segment").
				WithDetail("segment", segment).
				WithDetail("position", i).
				WithCause(errors.ErrInvalidPath)
		}
	}
	return nil
}

// IsValidID checks if an ID can name a collection or document. The
// service enforces the full rule set; only ids that cannot be expressed in
// a path are rejected here.
func IsValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if len(id) > maxIDLength {
		return false
	}
	return !strings.Contains(id, DocumentPathDelimiter)
}
