package actionlog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/yndnr/tablesync-go/internal/core/domain"
)

// File format constants (DS-0303).
const (
	FileExtension   = ".log"
	MagicBytes      = "TSYNALOG"
	MagicBytesSize  = 8
	DefaultFilePerm = 0600
	DefaultDirPerm  = 0750

	// maxFrameSize rejects frames whose length header is implausible, so a
	// corrupt header cannot drive a huge allocation.
	maxFrameSize = 16 << 20
)

var (
	errInvalidMagic     = errors.New("actionlog: invalid magic bytes")
	errChecksumMismatch = errors.New("actionlog: checksum mismatch")
	errFrameTooLarge    = errors.New("actionlog: frame exceeds size limit")
)

type framePayload struct {
	Version uint64         `json:"ver"`
	Action  *domain.Action `json:"action"`
}

type logEntry struct {
	version uint64
	action  *domain.Action
}

// Log is the durable action log of one session. Entries replay into memory
// at open; reads are served from the replayed index and appends go to both
// the file and the index.
type Log struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	entries []logEntry
	closed  bool
}

// Open opens or creates the log file for a session under dir, replaying any
// existing entries. A log whose content fails checksum or framing checks is
// reported as unavailable.
func Open(dir, sessionID string) (*Log, error) {
	if dir == "" {
		return nil, domain.ErrMissingArgument.WithDetails("action log dir is required")
	}
	if !domain.IsValidSessionID(sessionID) {
		return nil, domain.ErrInvalidArgument.WithDetails("session ID " + sessionID + " is not valid")
	}
	if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}

	path := filepath.Join(dir, sessionID+FileExtension)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, DefaultFilePerm)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}

	l := &Log{path: path, file: file}
	if err := l.replay(); err != nil {
		file.Close()
		return nil, domain.ErrLogUnavailable.WithCause(err)
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		file.Close()
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return l, nil
}

// replay loads all frames from the start of the file. A new file gets its
// magic header written; a cleanly truncated tail frame is dropped, anything
// else inconsistent is corruption.
func (l *Log) replay() error {
	stat, err := l.file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() == 0 {
		_, err := l.file.Write([]byte(MagicBytes))
		return err
	}
	if stat.Size() < MagicBytesSize {
		return errInvalidMagic
	}

	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	magic := make([]byte, MagicBytesSize)
	if _, err := io.ReadFull(l.file, magic); err != nil {
		return err
	}
	if string(magic) != MagicBytes {
		return errInvalidMagic
	}

	for {
		var header [8]byte
		_, err := io.ReadFull(l.file, header[:])
		if err == io.EOF {
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			// Torn header from an interrupted append. Drop the tail.
			return l.truncateTail()
		}
		if err != nil {
			return err
		}
		length := binary.BigEndian.Uint32(header[:4])
		wantCRC := binary.BigEndian.Uint32(header[4:])
		if length == 0 || length > maxFrameSize {
			return errFrameTooLarge
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(l.file, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return l.truncateTail()
			}
			return err
		}
		if crc32.ChecksumIEEE(payload) != wantCRC {
			return errChecksumMismatch
		}

		var p framePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("actionlog: unmarshal frame: %w", err)
		}
		if p.Action == nil {
			return fmt.Errorf("actionlog: frame without action")
		}
		l.entries = append(l.entries, logEntry{version: p.Version, action: p.Action})
	}
}

// truncateTail discards an incomplete trailing frame left by a crash mid
// append. Replayed entries before the tear are kept.
func (l *Log) truncateTail() error {
	offset := int64(MagicBytesSize)
	if _, err := l.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	for range l.entries {
		var header [8]byte
		if _, err := io.ReadFull(l.file, header[:]); err != nil {
			return err
		}
		length := int64(binary.BigEndian.Uint32(header[:4]))
		if _, err := l.file.Seek(length, io.SeekCurrent); err != nil {
			return err
		}
		offset += 8 + length
	}
	return l.file.Truncate(offset)
}

func encodeFrame(version uint64, action *domain.Action) ([]byte, error) {
	payload, err := json.Marshal(framePayload{Version: version, Action: action})
	if err != nil {
		return nil, fmt.Errorf("actionlog: marshal frame: %w", err)
	}
	if len(payload) > maxFrameSize {
		return nil, errFrameTooLarge
	}
	out := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(out[:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(out[4:8], crc32.ChecksumIEEE(payload))
	return append(out, payload...), nil
}

// Append durably records actions under the given snapshot version. The
// write is synced before Append returns.
func (l *Log) Append(version uint64, actions ...*domain.Action) error {
	if len(actions) == 0 {
		return nil
	}
	frames := make([][]byte, 0, len(actions))
	for _, a := range actions {
		if a == nil {
			return domain.ErrMissingArgument.WithDetails("nil action in batch")
		}
		frame, err := encodeFrame(version, a)
		if err != nil {
			return domain.ErrStorageError.WithCause(err)
		}
		frames = append(frames, frame)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return domain.ErrLogUnavailable.WithDetails("action log is closed")
	}
	for _, frame := range frames {
		if _, err := l.file.Write(frame); err != nil {
			return domain.ErrLogUnavailable.WithCause(err)
		}
	}
	if err := l.file.Sync(); err != nil {
		return domain.ErrLogUnavailable.WithCause(err)
	}
	for _, a := range actions {
		l.entries = append(l.entries, logEntry{version: version, action: a})
	}
	return nil
}

// Since returns, in append order, the actions recorded after the given
// snapshot version.
func (l *Log) Since(afterVersion uint64) ([]*domain.Action, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, domain.ErrLogUnavailable.WithDetails("action log is closed")
	}
	var out []*domain.Action
	for _, e := range l.entries {
		if e.version > afterVersion {
			out = append(out, e.action)
		}
	}
	return out, nil
}

// Len reports the number of logged actions.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Path returns the backing file path.
func (l *Log) Path() string { return l.path }

// Close syncs and closes the backing file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return domain.ErrStorageError.WithCause(err)
	}
	return l.file.Close()
}
