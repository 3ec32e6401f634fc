package usecase

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/shared/errors"
)

// Reconciler matches batch-get responses against the references that were
// requested. It knows nothing about the transport: responses are fed one at
// a time, in whatever order they arrived.
type Reconciler struct {
	paths        []string
	referenceMap map[string]*model.DocumentRef
	answered     map[string]struct{}
	codec        repository.FieldCodec
}

// NewReconciler records the request. paths keeps every reference in input
// order, duplicates included; in referenceMap the last duplicate wins.
func NewReconciler(refs []*model.DocumentRef, codec repository.FieldCodec) *Reconciler {
	r := &Reconciler{
		paths:        make([]string, 0, len(refs)),
		referenceMap: make(map[string]*model.DocumentRef, len(refs)),
		answered:     make(map[string]struct{}, len(refs)),
		codec:        codec,
	}
	for _, ref := range refs {
		path := ref.Path()
		r.paths = append(r.paths, path)
		r.referenceMap[path] = ref
	}
	return r
}

// Paths returns the document names to put on the wire.
func (r *Reconciler) Paths() []string {
	return append([]string{}, r.paths...)
}

// Distinct returns the number of distinct requested documents.
func (r *Reconciler) Distinct() int {
	return len(r.referenceMap)
}

// Reference returns the reference recorded for a fully-qualified path.
func (r *Reconciler) Reference(path string) (*model.DocumentRef, bool) {
	ref, ok := r.referenceMap[path]
	return ref, ok
}

// Resolve turns one response into a snapshot. A missing document yields
// (nil, nil).
func (r *Reconciler) Resolve(resp *firestorepb.BatchGetDocumentsResponse) (*model.DocumentSnapshot, error) {
	switch result := resp.GetResult().(type) {
	case *firestorepb.BatchGetDocumentsResponse_Found:
		doc := result.Found
		ref, err := r.lookup(doc.GetName())
		if err != nil {
			return nil, err
		}
		data, err := r.codec.DecodeFields(doc.GetFields())
		if err != nil {
			return nil, err
		}
		return model.NewDocumentSnapshot(
			ref,
			data,
			true,
			asTime(resp.GetReadTime()),
			asTime(doc.GetCreateTime()),
			asTime(doc.GetUpdateTime()),
		), nil
	case *firestorepb.BatchGetDocumentsResponse_Missing:
		if _, err := r.lookup(result.Missing); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, errors.NewDataIntegrityError("malformed batch get response").
			WithDetail("response", resp.String()).
			WithCause(errors.ErrMalformedResult)
	}
}

// Finish is called once the stream is exhausted. Every distinct requested
// document must have been answered, found or missing.
func (r *Reconciler) Finish() error {
	if len(r.answered) == len(r.referenceMap) {
		return nil
	}
	var unanswered []string
	for path := range r.referenceMap {
		if _, ok := r.answered[path]; !ok {
			unanswered = append(unanswered, path)
		}
	}
	sort.Strings(unanswered)
	return errors.NewDataIntegrityError(fmt.Sprintf("%d of %d requested documents were not answered", len(unanswered), len(r.referenceMap))).
		WithDetail("unanswered", unanswered).
		WithCause(errors.ErrIncompleteResponse)
}

func (r *Reconciler) lookup(path string) (*model.DocumentRef, error) {
	ref, ok := r.referenceMap[path]
	if !ok {
		return nil, errors.NewDataIntegrityError(fmt.Sprintf("document %q appeared in response", path)).
			WithDetail("path", path).
			WithCause(errors.ErrUnexpectedDocument)
	}
	r.answered[path] = struct{}{}
	return ref, nil
}

// Reconcile drains responses through a fresh Reconciler. It is the whole
// algorithm as a pure function; the iterator runs the same steps lazily.
func Reconcile(refs []*model.DocumentRef, responses []*firestorepb.BatchGetDocumentsResponse, codec repository.FieldCodec) ([]*model.DocumentSnapshot, error) {
	r := NewReconciler(refs, codec)
	out := make([]*model.DocumentSnapshot, 0, len(responses))
	for _, resp := range responses {
		snap, err := r.Resolve(resp)
		if err != nil {
			return out, err
		}
		out = append(out, snap)
	}
	return out, r.Finish()
}

func asTime(ts *timestamppb.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.AsTime()
}
