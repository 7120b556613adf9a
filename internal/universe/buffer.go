package universe

// Buffer holds the authoritative value of every channel in one universe.
// All observable state changes go through Write; Snapshot produces the
// immutable copy a single outgoing frame is composed from.
type Buffer struct {
	data []byte
}

// NewBuffer allocates a universe of the given size with every slot at the
// universe-wide default level.
func NewBuffer(size int, defaultLevel uint8) *Buffer {
	data := make([]byte, size)
	for i := range data {
		data[i] = defaultLevel
	}
	return &Buffer{data: data}
}

// Len is the universe channel count.
func (b *Buffer) Len() int { return len(b.data) }

// Read returns the current value at the 0-based offset.
func (b *Buffer) Read(offset int) uint8 { return b.data[offset] }

// Write sets the value at the 0-based offset.
func (b *Buffer) Write(offset int, v uint8) { b.data[offset] = v }

// Snapshot copies the full universe for one outgoing frame. The copy always
// covers every configured slot; partial frames are not a supported path.
func (b *Buffer) Snapshot() []byte {
	snap := make([]byte, len(b.data))
	copy(snap, b.data)
	return snap
}
