package record

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Journal is an append-only JSONL file. Appends are serialized, flushed and
// synced before Append returns.
type Journal struct {
	path string

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	enc    *json.Encoder
	seq    int
	refs   int
	store  *Store
}

// OpenJournal opens or creates the journal at path.
func OpenJournal(path string) (*Journal, error) {
	entries, err := ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create record directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	w := bufio.NewWriter(f)
	j := &Journal{
		path:   path,
		file:   f,
		writer: w,
		enc:    json.NewEncoder(w),
		refs:   1,
	}
	if n := len(entries); n > 0 {
		j.seq = entries[n-1].Seq
	}
	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string { return j.path }

// Append assigns the next sequence number, stamps the time if unset and
// writes e.
func (j *Journal) Append(e Entry) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return e, fmt.Errorf("record %s is closed", j.path)
	}

	j.seq++
	e.Seq = j.seq
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	if err := j.enc.Encode(e); err != nil {
		return e, fmt.Errorf("encode record entry: %w", err)
	}
	if err := j.writer.Flush(); err != nil {
		return e, fmt.Errorf("flush record: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return e, fmt.Errorf("sync record: %w", err)
	}
	return e, nil
}

// Entries reads every entry written so far.
func (j *Journal) Entries() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.writer != nil {
		if err := j.writer.Flush(); err != nil {
			return nil, err
		}
	}
	entries, err := ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

// Close releases the journal. A journal shared through a Store is closed
// when its last user closes it.
func (j *Journal) Close() error {
	if j.store != nil {
		return j.store.release(j)
	}
	return j.close()
}

func (j *Journal) close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	flushErr := j.writer.Flush()
	closeErr := j.file.Close()
	j.file = nil
	return errors.Join(flushErr, closeErr)
}

// ReadFile reads all entries of a journal file.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode reads JSONL entries from r. A truncated final line, left by a
// crash in the middle of a write, is ignored.
func Decode(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	var pending error
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if pending != nil {
			return nil, pending
		}
		var e Entry
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			pending = fmt.Errorf("record line %d: %w", line, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return entries, nil
}

// Store maps (procedure, target identity) to journal files under Dir.
type Store struct {
	Dir string

	mu   sync.Mutex
	open map[string]*Journal
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, open: make(map[string]*Journal)}
}

// Path returns the journal path for procedure and target.
func (s *Store) Path(procedure, target string) string {
	return filepath.Join(s.Dir, sanitize(procedure), sanitize(target)+".jsonl")
}

// Open returns the journal for procedure and target. Concurrent users of
// the same key share one journal and its write lock.
func (s *Store) Open(procedure, target string) (*Journal, error) {
	path := s.Path(procedure, target)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == nil {
		s.open = make(map[string]*Journal)
	}
	if j, ok := s.open[path]; ok {
		j.refs++
		return j, nil
	}
	j, err := OpenJournal(path)
	if err != nil {
		return nil, err
	}
	j.store = s
	s.open[path] = j
	return j, nil
}

// Read returns the entries for procedure and target without opening the
// journal for writing. A missing journal yields no entries.
func (s *Store) Read(procedure, target string) ([]Entry, error) {
	entries, err := ReadFile(s.Path(procedure, target))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func (s *Store) release(j *Journal) error {
	s.mu.Lock()
	j.refs--
	last := j.refs <= 0
	if last {
		delete(s.open, j.path)
	}
	s.mu.Unlock()

	if !last {
		return nil
	}
	return j.close()
}

func sanitize(s string) string {
	if s == "" {
		return "_"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "." || out == ".." {
		return "_"
	}
	return out
}
