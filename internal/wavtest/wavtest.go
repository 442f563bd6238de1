// Package wavtest builds container fixtures for tests.
package wavtest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Spec describes a fixture container
type Spec struct {
	SampleRate uint32
	Channels   uint16
	ByteWidth  uint16
	Payload    []byte
}

// Mono returns a mono spec with frames deterministic samples seeded by seed
func Mono(rate uint32, width uint16, frames int, seed byte) Spec {
	payload := make([]byte, frames*int(width))
	for i := range payload {
		payload[i] = seed + byte(i*13)
	}
	return Spec{SampleRate: rate, Channels: 1, ByteWidth: width, Payload: payload}
}

// Bytes renders s as a canonical 44-byte-header container
func (s Spec) Bytes() []byte {
	buf := make([]byte, 44+len(s.Payload))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(s.Payload)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], s.Channels)
	binary.LittleEndian.PutUint32(buf[24:28], s.SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], s.SampleRate*uint32(s.Channels)*uint32(s.ByteWidth))
	binary.LittleEndian.PutUint16(buf[32:34], s.Channels*s.ByteWidth)
	binary.LittleEndian.PutUint16(buf[34:36], s.ByteWidth*8)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(s.Payload)))
	copy(buf[44:], s.Payload)
	return buf
}

// Write stores s as dir/name and returns the full path
func Write(t testing.TB, dir, name string, s Spec) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, s.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}
