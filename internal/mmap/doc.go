// Package mmap provides read-only memory-mapped file access.
//
// Embedding matrices can be gigabytes in size; mapping them avoids reading
// the whole file into a heap buffer before decoding.
//
//	m, err := mmap.Open("embeddings.bin")
//	if err != nil { ... }
//	defer m.Close()
//
//	m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix uses mmap(2) with madvise(2) for access hints. Windows uses
// CreateFileMapping/MapViewOfFile; Advise is a no-op there.
package mmap
