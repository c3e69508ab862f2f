// Package wav encodes captured audio as 32-bit float PCM WAV files and
// reads them back. Files carry the canonical 44-byte header; recordings
// are written to a temp file and renamed into place so readers never see
// a partial file.
package wav

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"lectern/audio"
)

const (
	SampleRate = 44100
	Channels   = 1
	HeaderSize = 44

	formatFloat = 3
	formatPCM   = 1

	bytesPerSample = 4
)

const recordingTimeFormat = "20060102_150405"

// RecordingPath builds the destination path for a recording taken at the
// given time, e.g. recordings/recording_20240314_092653.wav.
func RecordingPath(dir string, at time.Time) string {
	return filepath.Join(dir, "recording_"+at.Format(recordingTimeFormat)+".wav")
}

type RecordedFile struct {
	Path       string
	SampleRate int
	Channels   int
	FrameCount int
}

func (f *RecordedFile) Duration() time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(f.FrameCount) * time.Second / time.Duration(f.SampleRate)
}

// WriteError wraps any filesystem failure while persisting a recording.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

type header struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

// Encode writes the buffer as an IEEE float WAV stream. An empty buffer
// produces a valid header-only file.
func Encode(w io.Writer, buf *audio.Buffer) error {
	dataLen := uint32(buf.SampleCount() * bytesPerSample)
	blockAlign := uint16(buf.Channels() * bytesPerSample)
	h := header{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataLen,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   formatFloat,
		NumChannels:   uint16(buf.Channels()),
		SampleRate:    uint32(buf.SampleRate()),
		ByteRate:      uint32(buf.SampleRate()) * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: 32,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataLen,
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < buf.ChunkCount(); i++ {
		if err := binary.Write(w, binary.LittleEndian, buf.Chunk(i)); err != nil {
			return fmt.Errorf("write samples: %w", err)
		}
	}
	return nil
}

// Save persists the buffer at path, creating parent directories as
// needed. The file appears atomically: it is encoded to a temp file in
// the same directory and renamed over the destination.
func Save(buf *audio.Buffer, path string) (*RecordedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".recording-*.tmp")
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, buf); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		tmpName := tmp.Name()
		tmp = nil
		os.Remove(tmpName)
		return nil, &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	tmp = nil
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nil, &WriteError{Path: path, Err: err}
	}

	return &RecordedFile{
		Path:       path,
		SampleRate: buf.SampleRate(),
		Channels:   buf.Channels(),
		FrameCount: buf.FrameCount(),
	}, nil
}

type format struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// readHeader walks the RIFF chunks up to the data chunk and leaves r
// positioned at the first sample byte.
func readHeader(r io.Reader) (*format, uint32, error) {
	var riff struct {
		RIFF      [4]byte
		ChunkSize uint32
		WAVE      [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return nil, 0, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff.RIFF[:]) != "RIFF" || string(riff.WAVE[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a wav file")
	}

	var f *format
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			return nil, 0, fmt.Errorf("read chunk header: %w", err)
		}
		switch string(chunk.ID[:]) {
		case "fmt ":
			if chunk.Size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", chunk.Size)
			}
			f = &format{}
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return nil, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			if rest := int64(chunk.Size) - 16; rest > 0 {
				if _, err := io.CopyN(io.Discard, r, rest); err != nil {
					return nil, 0, fmt.Errorf("skip fmt extension: %w", err)
				}
			}
		case "data":
			if f == nil {
				return nil, 0, fmt.Errorf("data chunk before fmt chunk")
			}
			return f, chunk.Size, nil
		default:
			// Skip unknown chunks (LIST, fact, ...), padded to even size.
			skip := int64(chunk.Size) + int64(chunk.Size&1)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, 0, fmt.Errorf("skip %q chunk: %w", chunk.ID, err)
			}
		}
	}
}

// Read decodes a float WAV file written by this package back into a
// buffer.
func Read(path string) (*audio.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	f, dataLen, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.AudioFormat != formatFloat || f.BitsPerSample != 32 {
		return nil, fmt.Errorf("%s: unsupported format %d/%d-bit, want IEEE float 32-bit",
			path, f.AudioFormat, f.BitsPerSample)
	}

	samples := make([]float32, dataLen/bytesPerSample)
	if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("%s: read samples: %w", path, err)
	}

	buf := audio.NewBuffer(int(f.SampleRate), int(f.NumChannels))
	buf.Append(samples)
	return buf, nil
}

// Info reports the metadata of a WAV file without decoding its samples.
// Both integer PCM and float files are accepted.
func Info(path string) (*RecordedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, dataLen, err := readHeader(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.AudioFormat != formatFloat && f.AudioFormat != formatPCM {
		return nil, fmt.Errorf("%s: unsupported audio format %d", path, f.AudioFormat)
	}
	frames := 0
	if f.BlockAlign > 0 {
		frames = int(dataLen) / int(f.BlockAlign)
	}
	return &RecordedFile{
		Path:       path,
		SampleRate: int(f.SampleRate),
		Channels:   int(f.NumChannels),
		FrameCount: frames,
	}, nil
}
