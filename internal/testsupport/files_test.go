package testsupport_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"vapord/internal/testsupport"
)

func TestWriteAudioFileProducesWavShapedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Track_vapor.wav")
	testsupport.WriteAudioFile(t, path, 128)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if len(data) != 128 {
		t.Fatalf("size = %d, want 128", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE magic: % x", data[:12])
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != 120 {
		t.Fatalf("riff chunk size = %d, want 120", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 84 {
		t.Fatalf("data chunk size = %d, want 84", got)
	}
}

func TestWriteAudioFileSmallSizes(t *testing.T) {
	dir := t.TempDir()

	small := filepath.Join(dir, "small.wav")
	testsupport.WriteAudioFile(t, small, 16)
	info, err := os.Stat(small)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 16 {
		t.Fatalf("size = %d, want 16", info.Size())
	}

	tiny := filepath.Join(dir, "tiny.wav")
	testsupport.WriteAudioFile(t, tiny, 0)
	info, err = os.Stat(tiny)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 1 {
		t.Fatalf("size = %d, want 1", info.Size())
	}
}
