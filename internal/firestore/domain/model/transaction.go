package model

import (
	"fmt"
	"sync"

	"cloud.google.com/go/firestore/apiv1/firestorepb"

	"firestore-client/internal/shared/errors"
)

// Transaction queues writes under a server-issued transaction id. Sending
// the queued writes is left to the commit path of the transport.
type Transaction struct {
	id []byte

	mu     sync.Mutex
	writes []*firestorepb.Write
}

// NewTransaction wraps a transaction id returned by BeginTransaction.
func NewTransaction(id []byte) *Transaction {
	return &Transaction{id: append([]byte{}, id...)}
}

// ID returns the opaque transaction id.
func (t *Transaction) ID() []byte {
	if t == nil {
		return nil
	}
	return t.id
}

// HasPendingWrites reports whether any write has been queued.
func (t *Transaction) HasPendingWrites() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.writes) > 0
}

// Writes returns the queued writes in the order they were added.
func (t *Transaction) Writes() []*firestorepb.Write {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*firestorepb.Write{}, t.writes...)
}

// Set queues a full overwrite of the document.
func (t *Transaction) Set(ref *DocumentRef, fields map[string]*firestorepb.Value, opts ...WriteOption) error {
	write := &firestorepb.Write{
		Operation: &firestorepb.Write_Update{Update: &firestorepb.Document{Name: ref.Path(), Fields: fields}},
	}
	if err := applyOption(write, "", opts); err != nil {
		return err
	}
	t.add(write)
	return nil
}

// Update queues a partial update of the fields named by the mask. Without an
// option the document must already exist.
func (t *Transaction) Update(ref *DocumentRef, fields map[string]*firestorepb.Value, mask *DocumentMask, opts ...WriteOption) error {
	write := &firestorepb.Write{
		Operation:  &firestorepb.Write_Update{Update: &firestorepb.Document{Name: ref.Path(), Fields: fields}},
		UpdateMask: mask.Proto(),
	}
	if len(opts) == 0 {
		opts = []WriteOption{Exists(true)}
	}
	if err := applyOption(write, "", opts); err != nil {
		return err
	}
	t.add(write)
	return nil
}

// Delete queues a deletion. CreateIfMissing is rejected.
func (t *Transaction) Delete(ref *DocumentRef, opts ...WriteOption) error {
	write := &firestorepb.Write{
		Operation: &firestorepb.Write_Delete{Delete: ref.Path()},
	}
	if err := applyOption(write, noCreateMessage("Delete"), opts); err != nil {
		return err
	}
	t.add(write)
	return nil
}

func (t *Transaction) add(write *firestorepb.Write) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, write)
}

func applyOption(write *firestorepb.Write, forbidMessage string, opts []WriteOption) error {
	switch len(opts) {
	case 0:
		return nil
	case 1:
		return opts[0].Apply(write, forbidMessage)
	default:
		return errors.NewUsageError(fmt.Sprintf("at most one write option may be given, got %d", len(opts))).
			WithCause(errors.ErrBadWriteOption)
	}
}

func noCreateMessage(operation string) string {
	return fmt.Sprintf("the %s option cannot be used on %s()", SelectorCreateIfMissing, operation)
}
