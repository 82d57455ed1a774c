package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// wavHeaderSize is the length of a canonical PCM RIFF/WAVE header.
const wavHeaderSize = 44

// WriteAudioFile writes a stand-in artifact of exactly size bytes. Files big
// enough to carry one start with a minimal RIFF/WAVE header followed by flat
// 8-bit samples; smaller sizes are raw samples only. A size <= 0 writes a
// single byte.
func WriteAudioFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	payload := make([]byte, size)
	offset := 0
	if size >= wavHeaderSize {
		writeWavHeader(payload, size)
		offset = wavHeaderSize
	}
	for i := offset; i < len(payload); i++ {
		payload[i] = 0x80 // silence in unsigned 8-bit PCM
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeWavHeader lays down a mono 8-bit 44.1kHz PCM header whose chunk sizes
// match a file of fileSize bytes.
func writeWavHeader(buf []byte, fileSize int64) {
	le := binary.LittleEndian
	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], uint32(fileSize-8))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16)
	le.PutUint16(buf[20:22], 1) // PCM
	le.PutUint16(buf[22:24], 1) // mono
	le.PutUint32(buf[24:28], 44100)
	le.PutUint32(buf[28:32], 44100)
	le.PutUint16(buf[32:34], 1)
	le.PutUint16(buf[34:36], 8)
	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], uint32(fileSize-wavHeaderSize))
}
