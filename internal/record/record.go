// Package record reads and writes the JSON records that back the
// coordination layer: task files, mailbox messages, lock holder files and
// the waves cache. Writes are temp-file-then-rename so a crash mid-write
// never corrupts the canonical record, and unknown JSON fields survive a
// read-modify-write cycle.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
)

// ErrNotFound indicates the record file does not exist.
var ErrNotFound = errors.New("record not found")

// ErrCorrupt indicates the record file exists but fails to parse.
// Callers must treat this as NotFound-equivalent with a logged warning,
// never silently rewrite the file with defaults.
var ErrCorrupt = errors.New("record corrupt")

// ExtraCarrier is implemented by record types that preserve unknown JSON
// fields across a read-modify-write cycle.
type ExtraCarrier interface {
	ExtraFields() map[string]json.RawMessage
	SetExtraFields(map[string]json.RawMessage)
}

// Read loads the JSON record at path into v.
// Returns ErrNotFound if the file is missing and ErrCorrupt if it fails to
// parse. If v implements ExtraCarrier, fields not declared on v are captured
// so a later Write carries them forward.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	carrier, ok := v.(ExtraCarrier)
	if !ok {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	for key := range knownKeys(v) {
		delete(raw, key)
	}
	if len(raw) > 0 {
		carrier.SetExtraFields(raw)
	}
	return nil
}

// Write marshals v and atomically replaces the file at path.
// The record is written to a temporary file in the same directory and
// renamed over the target, so concurrent readers see either the old record
// or the new one, never a partial write. Unknown fields held by an
// ExtraCarrier are merged back in; declared fields always win.
func Write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	if carrier, ok := v.(ExtraCarrier); ok {
		if extra := carrier.ExtraFields(); len(extra) > 0 {
			merged := make(map[string]json.RawMessage)
			if err := json.Unmarshal(data, &merged); err != nil {
				return fmt.Errorf("merge %s: %w", path, err)
			}
			for key, val := range extra {
				if _, exists := merged[key]; !exists {
					merged[key] = val
				}
			}
			if data, err = json.MarshalIndent(merged, "", "  "); err != nil {
				return fmt.Errorf("merge %s: %w", path, err)
			}
		}
	}

	return writeAtomic(path, append(data, '\n'))
}

// writeAtomic writes data to a temp file next to path, syncs it, then
// renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename over %s: %w", path, err)
	}
	return nil
}

// knownKeys returns the JSON keys declared on v's struct type, including
// fields currently omitted by omitempty.
func knownKeys(v any) map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return keys
	}
	collectKeys(t, keys)
	return keys
}

func collectKeys(t reflect.Type, keys map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectKeys(ft, keys)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
}
