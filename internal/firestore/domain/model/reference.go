package model

import (
	"firestore-client/internal/shared/errors"
	fspath "firestore-client/internal/shared/firestore"
)

// DatabaseName identifies the database every reference of a client lives in.
type DatabaseName struct {
	ProjectID  string
	DatabaseID string
}

// NewDatabaseName validates the ids. An empty database id selects the
// default database.
func NewDatabaseName(projectID, databaseID string) (DatabaseName, error) {
	if databaseID == "" {
		databaseID = fspath.DefaultDatabase
	}
	if !fspath.IsValidID(projectID) {
		return DatabaseName{}, errors.NewValidationError("invalid project ID").
			WithDetail("project_id", projectID).
			WithCause(errors.ErrInvalidProjectID)
	}
	if !fspath.IsValidID(databaseID) {
		return DatabaseName{}, errors.NewValidationError("invalid database ID").
			WithDetail("database_id", databaseID).
			WithCause(errors.ErrInvalidDatabaseID)
	}
	return DatabaseName{ProjectID: projectID, DatabaseID: databaseID}, nil
}

// String returns projects/{project}/databases/{database}.
func (d DatabaseName) String() string {
	return fspath.BuildDatabasePath(d.ProjectID, d.DatabaseID)
}

// DocumentsRoot returns the prefix shared by every document name.
func (d DatabaseName) DocumentsRoot() string {
	return d.String() + "/documents"
}

// CollectionRef points at a collection. Its relative path always has an
// odd number of segments.
type CollectionRef struct {
	db       DatabaseName
	segments []string
	path     string
}

// DocumentRef points at a document. Its relative path always has an even
// number of segments.
type DocumentRef struct {
	db       DatabaseName
	segments []string
	path     string
}

// NewCollectionRef builds a collection reference from alternating
// collection and document ids, collection id first.
func NewCollectionRef(db DatabaseName, segments ...string) (*CollectionRef, error) {
	if err := validateRefPath(segments, true); err != nil {
		return nil, err
	}
	segs := append([]string{}, segments...)
	return &CollectionRef{db: db, segments: segs, path: qualify(db, segs)}, nil
}

// NewDocumentRef builds a document reference from alternating collection and
// document ids, collection id first.
func NewDocumentRef(db DatabaseName, segments ...string) (*DocumentRef, error) {
	if err := validateRefPath(segments, false); err != nil {
		return nil, err
	}
	segs := append([]string{}, segments...)
	return &DocumentRef{db: db, segments: segs, path: qualify(db, segs)}, nil
}

// ParseDocumentName turns a fully-qualified document name back into a
// reference.
func ParseDocumentName(name string) (*DocumentRef, error) {
	info, err := fspath.ParseFirestorePath(name)
	if err != nil {
		return nil, err
	}
	db := DatabaseName{ProjectID: info.ProjectID, DatabaseID: info.DatabaseID}
	return NewDocumentRef(db, info.Segments...)
}

func validateRefPath(segments []string, collection bool) error {
	if err := fspath.ValidateSegments(segments); err != nil {
		return err
	}
	odd := len(segments)%2 == 1
	if collection && !odd {
		return errors.NewValidationError("a collection path must have an odd number of segments").
			WithDetail("path", fspath.BuildDocumentPath(segments...)).
			WithCause(errors.ErrInvalidPath)
	}
	if !collection && odd {
		return errors.NewValidationError("a document path must have an even number of segments").
			WithDetail("path", fspath.BuildDocumentPath(segments...)).
			WithCause(errors.ErrInvalidPath)
	}
	return nil
}

func qualify(db DatabaseName, segments []string) string {
	return fspath.BuildFirestorePath(db.ProjectID, db.DatabaseID, fspath.BuildDocumentPath(segments...))
}

// ID returns the last path segment.
func (c *CollectionRef) ID() string { return c.segments[len(c.segments)-1] }

// Path returns the fully-qualified name.
func (c *CollectionRef) Path() string { return c.path }

// RelativePath returns the path below the database's documents root.
func (c *CollectionRef) RelativePath() string { return fspath.BuildDocumentPath(c.segments...) }

// Segments returns a copy of the relative path segments.
func (c *CollectionRef) Segments() []string { return append([]string{}, c.segments...) }

// Database returns the database the collection belongs to.
func (c *CollectionRef) Database() DatabaseName { return c.db }

// Parent returns the document holding a subcollection, or nil for a
// top-level collection.
func (c *CollectionRef) Parent() *DocumentRef {
	if len(c.segments) == 1 {
		return nil
	}
	segs := c.segments[:len(c.segments)-1]
	return &DocumentRef{db: c.db, segments: segs, path: qualify(c.db, segs)}
}

// Doc returns a reference to the document id inside this collection.
func (c *CollectionRef) Doc(id string) (*DocumentRef, error) {
	return NewDocumentRef(c.db, append(c.Segments(), id)...)
}

// Equal reports whether both references name the same collection.
func (c *CollectionRef) Equal(other *CollectionRef) bool {
	return other != nil && c.path == other.path
}

func (c *CollectionRef) String() string { return c.path }

// ID returns the document id.
func (d *DocumentRef) ID() string { return d.segments[len(d.segments)-1] }

// Path returns the fully-qualified name.
func (d *DocumentRef) Path() string { return d.path }

// RelativePath returns the path below the database's documents root.
func (d *DocumentRef) RelativePath() string { return fspath.BuildDocumentPath(d.segments...) }

// Segments returns a copy of the relative path segments.
func (d *DocumentRef) Segments() []string { return append([]string{}, d.segments...) }

// Database returns the database the document belongs to.
func (d *DocumentRef) Database() DatabaseName { return d.db }

// Parent returns the collection holding the document.
func (d *DocumentRef) Parent() *CollectionRef {
	segs := d.segments[:len(d.segments)-1]
	return &CollectionRef{db: d.db, segments: segs, path: qualify(d.db, segs)}
}

// Collection returns a reference to a subcollection of the document.
func (d *DocumentRef) Collection(id string) (*CollectionRef, error) {
	return NewCollectionRef(d.db, append(d.Segments(), id)...)
}

// Equal reports whether both references name the same document.
func (d *DocumentRef) Equal(other *DocumentRef) bool {
	return other != nil && d.path == other.path
}

func (d *DocumentRef) String() string { return d.path }
