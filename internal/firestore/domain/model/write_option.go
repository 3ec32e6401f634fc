package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"firestore-client/internal/shared/errors"
)

// Selectors accepted by NewWriteOption.
const (
	SelectorCreateIfMissing = "create_if_missing"
	SelectorLastUpdateTime  = "last_update_time"
	SelectorExists          = "exists"
)

// WriteOptionKind tags the precondition a WriteOption imposes.
type WriteOptionKind int

const (
	KindCreateIfMissing WriteOptionKind = iota + 1
	KindLastUpdateTime
	KindExists
)

func (k WriteOptionKind) String() string {
	switch k {
	case KindCreateIfMissing:
		return SelectorCreateIfMissing
	case KindLastUpdateTime:
		return SelectorLastUpdateTime
	case KindExists:
		return SelectorExists
	default:
		return "unknown"
	}
}

// WriteOption asserts a condition on a write. The zero value is not a valid
// option; build one with CreateIfMissing, LastUpdateTime, Exists or
// NewWriteOption.
type WriteOption struct {
	kind       WriteOptionKind
	flag       bool
	updateTime time.Time
}

// CreateIfMissing: false requires the document to exist, true imposes
// nothing. Operations that can never create a document reject it.
func CreateIfMissing(create bool) WriteOption {
	return WriteOption{kind: KindCreateIfMissing, flag: create}
}

// LastUpdateTime requires the document's last update time to equal t.
func LastUpdateTime(t time.Time) WriteOption {
	return WriteOption{kind: KindLastUpdateTime, updateTime: t}
}

// Exists requires the document to exist (true) or not exist (false).
func Exists(exists bool) WriteOption {
	return WriteOption{kind: KindExists, flag: exists}
}

// NewWriteOption builds an option from a generic selector map. Exactly one
// of create_if_missing, last_update_time and exists must be present.
func NewWriteOption(selectors map[string]interface{}) (WriteOption, error) {
	if len(selectors) != 1 {
		keys := make([]string, 0, len(selectors))
		for k := range selectors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return WriteOption{}, errors.NewUsageError(fmt.Sprintf("invalid write option (%d selectors given)", len(keys))).
			WithDetail("provided", strings.Join(keys, ",")).
			WithCause(errors.ErrBadWriteOption)
	}

	var name string
	var value interface{}
	for k, v := range selectors {
		name, value = k, v
	}

	switch name {
	case SelectorCreateIfMissing, SelectorExists:
		b, ok := value.(bool)
		if !ok {
			return WriteOption{}, badSelectorValue(name, value, "bool")
		}
		if name == SelectorExists {
			return Exists(b), nil
		}
		return CreateIfMissing(b), nil
	case SelectorLastUpdateTime:
		switch t := value.(type) {
		case time.Time:
			return LastUpdateTime(t), nil
		case *timestamppb.Timestamp:
			if err := t.CheckValid(); err != nil {
				return WriteOption{}, badSelectorValue(name, value, "valid timestamp")
			}
			return LastUpdateTime(t.AsTime()), nil
		default:
			return WriteOption{}, badSelectorValue(name, value, "timestamp")
		}
	default:
		return WriteOption{}, errors.NewUsageError(fmt.Sprintf("invalid write option, %q was provided", name)).
			WithDetail("provided", name).
			WithCause(errors.ErrBadWriteOption)
	}
}

func badSelectorValue(name string, value interface{}, want string) error {
	return errors.NewUsageError(fmt.Sprintf("write option %s expects a %s, got %T", name, want, value)).
		WithDetail("selector", name).
		WithCause(errors.ErrBadWriteOption)
}

// Kind returns which precondition the option imposes.
func (o WriteOption) Kind() WriteOptionKind { return o.kind }

func (o WriteOption) String() string {
	if o.kind == KindLastUpdateTime {
		return fmt.Sprintf("%s=%s", o.kind, o.updateTime.UTC().Format(time.RFC3339Nano))
	}
	return fmt.Sprintf("%s=%t", o.kind, o.flag)
}

// Apply sets write's current-document precondition. A non-empty
// forbidMessage marks an operation that can never create a document;
// CreateIfMissing then fails with that message whatever its value.
func (o WriteOption) Apply(write *firestorepb.Write, forbidMessage string) error {
	switch o.kind {
	case KindCreateIfMissing:
		if forbidMessage != "" {
			return errors.NewUsageError(forbidMessage).WithDetail("selector", SelectorCreateIfMissing)
		}
		if !o.flag {
			write.CurrentDocument = existsPrecondition(true)
		}
		return nil
	case KindLastUpdateTime:
		write.CurrentDocument = &firestorepb.Precondition{
			ConditionType: &firestorepb.Precondition_UpdateTime{UpdateTime: timestamppb.New(o.updateTime)},
		}
		return nil
	case KindExists:
		write.CurrentDocument = existsPrecondition(o.flag)
		return nil
	default:
		return errors.NewUsageError("write option was not initialized").WithCause(errors.ErrBadWriteOption)
	}
}

func existsPrecondition(exists bool) *firestorepb.Precondition {
	return &firestorepb.Precondition{
		ConditionType: &firestorepb.Precondition_Exists{Exists: exists},
	}
}
