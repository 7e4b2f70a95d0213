package fixtures

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey matches every *UnknownKeyError via errors.Is.
	ErrUnknownKey = errors.New("unknown fixture key")

	// ErrUnpersistableKey is returned by stores for keys that are not
	// non-empty strings, and for keys in an unnamed collection.
	ErrUnpersistableKey = errors.New("fixture key cannot be persisted")
)

// UnknownKeyError reports a lookup of a key that was never set.
type UnknownKeyError struct {
	Collection string
	Key        any
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("can't find test_data.%s[%#v], did you forget to set it?", e.Collection, e.Key)
}

func (e *UnknownKeyError) Is(target error) bool {
	return target == ErrUnknownKey
}
