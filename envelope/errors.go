package envelope

import "errors"

var (
	// ErrAlreadyExists indicates a key record already exists for the object
	// or folder. Callers should treat it as already-initialized.
	ErrAlreadyExists = errors.New("key record already exists")

	// ErrNoAccess is returned when a requester has no path to a key: the
	// record is absent, or the requester is neither the owner nor in the
	// sharing map. The two cases are deliberately indistinguishable so a
	// lookup cannot probe for an object's existence.
	ErrNoAccess = errors.New("no access to key record")

	// ErrPermissionDenied indicates an ownership check failed on a sharing
	// mutation. This is an expected, recoverable outcome for a well-formed
	// request from the wrong actor.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates the key record for a migration or status
	// operation is absent.
	ErrNotFound = errors.New("key record not found")

	// ErrLegacyObject indicates the object is still protected by the
	// per-user master key and has no content key to serve or share.
	ErrLegacyObject = errors.New("object key is legacy")
)
