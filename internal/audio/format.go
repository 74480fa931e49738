package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat reports an output format this build cannot
// encode. Lossy and FLAC encoding are deliberately not bundled; WAV is
// the lossless path and raw PCM the piping path.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Save writes the buffer to path, choosing the container from the file
// extension: .wav, .f32le (raw little-endian float32), or .s16le (raw
// little-endian 16-bit PCM).
func Save(buf *Buffer, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", "":
		return SaveWAV(buf, path)
	case ".f32le", ".pcm":
		return saveRaw(path, EncodeF32LE(buf.Samples))
	case ".s16le":
		return saveRaw(path, EncodeS16LE(buf.Samples))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func saveRaw(path string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyBuffer
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
