package usecase

import (
	"context"
	"io"

	"google.golang.org/api/iterator"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/shared/errors"
	"firestore-client/internal/shared/logger"
)

// DocumentSnapshotIterator yields the results of one batch get in the order
// the transport delivers them. It is single-pass and not safe for
// concurrent use.
type DocumentSnapshotIterator struct {
	stream repository.BatchGetStream
	rec    *Reconciler
	cancel context.CancelFunc
	logger logger.Logger

	received int
	err      error
}

func newDocumentSnapshotIterator(stream repository.BatchGetStream, rec *Reconciler, cancel context.CancelFunc, log logger.Logger) *DocumentSnapshotIterator {
	return &DocumentSnapshotIterator{
		stream: stream,
		rec:    rec,
		cancel: cancel,
		logger: log,
	}
}

// Next returns the next result. A missing document is reported as a nil
// snapshot with a nil error. After the last result Next returns
// iterator.Done; after any other error it keeps returning that error.
func (it *DocumentSnapshotIterator) Next() (*model.DocumentSnapshot, error) {
	if it.err != nil {
		return nil, it.err
	}

	resp, err := it.stream.Recv()
	if err == io.EOF {
		if ferr := it.rec.Finish(); ferr != nil {
			return nil, it.fail(ferr)
		}
		it.logger.Debugf("Batch get finished after %d responses", it.received)
		it.release(iterator.Done)
		return nil, iterator.Done
	}
	if err != nil {
		return nil, it.fail(errors.FromTransport(err, "batch get stream failed"))
	}

	it.received++
	snap, err := it.rec.Resolve(resp)
	if err != nil {
		return nil, it.fail(err)
	}
	return snap, nil
}

// GetAll drains the iterator. Missing documents appear as nil entries.
func (it *DocumentSnapshotIterator) GetAll() ([]*model.DocumentSnapshot, error) {
	defer it.Stop()
	var out []*model.DocumentSnapshot
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, snap)
	}
}

// Stop abandons the stream. It may be called at any time, more than once.
func (it *DocumentSnapshotIterator) Stop() {
	if it.err == nil {
		it.release(iterator.Done)
	}
}

func (it *DocumentSnapshotIterator) fail(err error) error {
	if errors.IsDataIntegrity(err) {
		it.logger.WithFields(map[string]interface{}{"error": err.Error()}).Error("Batch get response does not match the request")
	} else {
		it.logger.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Batch get stream failed")
	}
	it.release(err)
	return err
}

func (it *DocumentSnapshotIterator) release(err error) {
	it.err = err
	if it.cancel != nil {
		it.cancel()
		it.cancel = nil
	}
}
