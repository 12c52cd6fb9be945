package chest

import "errors"

// ErrKeyNotFound is returned when a key is absent from both the in-memory
// table and the disk tier.
var ErrKeyNotFound = errors.New("chest: key not found")
