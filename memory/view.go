package memory

// View is the capability consumers need to read and write mapped bytes.
// It decouples record layouts from the locking that makes the bytes safe.
type View interface {
	// Buffer returns the mapped bytes from the cursor to the end of the
	// mapping. The caller must not use more than its record's size.
	Buffer() []byte
	// Advance moves the cursor forward n bytes. It does not touch the lock
	// and is not checked against the mapping size.
	Advance(n int)
}

var _ View = (*Accessor)(nil)
