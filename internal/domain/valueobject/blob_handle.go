package valueobject

import "strings"

// InlineHandlePrefix marks handles whose payload is encoded in the
// handle itself rather than written to durable storage.
const InlineHandlePrefix = "inline:"

// BlobHandle is an opaque reference to stored image bytes. Callers must
// not interpret Ref beyond passing it back to the blob store. Durable
// reports whether the bytes survive a process restart; inline handles
// are best-effort within the current process lifetime only.
type BlobHandle struct {
	Ref     string
	Durable bool
}

func NewBlobHandle(ref string) BlobHandle {
	return BlobHandle{Ref: ref, Durable: true}
}

func NewInlineBlobHandle(ref string) BlobHandle {
	return BlobHandle{Ref: ref, Durable: false}
}

// ParseBlobHandle reconstructs a handle from its persisted string form.
func ParseBlobHandle(ref string) BlobHandle {
	return BlobHandle{
		Ref:     ref,
		Durable: !strings.HasPrefix(ref, InlineHandlePrefix),
	}
}

func (h BlobHandle) IsZero() bool {
	return h.Ref == ""
}
