package core

// msgstore.go persists the messages of a dataset's latest check run.
//
// Each dataset has one record file under <root>/<first 4 chars of ID>/<ID>.messages
// holding one encoded message per line. A missing file means the dataset was
// never checked; an empty file means it was checked with zero findings.
// Writes go to a temporary file in the same directory which is then renamed
// into place, so readers never see a partially written record.

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const messagesExt = ".messages"

// MessageStore reads and writes message record files below a root directory.
type MessageStore struct {
	root string
}

// NewMessageStore creates the root directory if needed.
func NewMessageStore(root string) (*MessageStore, error) {
	if root == "" {
		return nil, errors.New("message store root not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create message store root: %w", err)
	}
	return &MessageStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *MessageStore) Root() string { return s.root }

// Path returns the record file path of a dataset.
func (s *MessageStore) Path(datasetID string) (string, error) {
	id, err := NormalizeDatasetID(datasetID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, id[:4], id+messagesExt), nil
}

// Write replaces the record of a dataset with msgs.
func (s *MessageStore) Write(datasetID string, msgs []Message) error {
	path, err := s.Path(datasetID)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create message directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp message file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for i, m := range msgs {
		line, err := EncodeMessage(m)
		if err != nil {
			return fmt.Errorf("encode message %d: %w", i+1, err)
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write message file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write message file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync message file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close message file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace message file: %w", err)
	}
	committed = true
	return nil
}

// Read returns the messages of a dataset's latest check. It returns
// ErrNotChecked if no record exists.
func (s *MessageStore) Read(datasetID string) ([]Message, error) {
	path, err := s.Path(datasetID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotChecked, datasetID)
		}
		return nil, fmt.Errorf("open message file: %w", err)
	}
	defer f.Close()

	msgs := []Message{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m, err := DecodeMessage(line)
		if err != nil {
			return nil, &RecordCorruptError{Line: lineNum, Reason: err.Error()}
		}
		msgs = append(msgs, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, &RecordCorruptError{Line: lineNum + 1, Reason: err.Error()}
	}
	return msgs, nil
}

// Delete removes the record of a dataset. It reports whether a record existed.
func (s *MessageStore) Delete(datasetID string) (bool, error) {
	path, err := s.Path(datasetID)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete message file: %w", err)
	}
	return true, nil
}

// Exists reports whether a dataset has a record.
func (s *MessageStore) Exists(datasetID string) (bool, error) {
	path, err := s.Path(datasetID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
