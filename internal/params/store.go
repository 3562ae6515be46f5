package params

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	routeFixed   = "fixed"
	routeDynamic = "dynamic"
	routeState   = "state"
)

// Store owns the fixed and dynamic tables of one simulation run and the
// configuration file they were loaded from.
type Store struct {
	Fixed   *Table
	Dynamic *Table
	path    string
}

func NewStore() *Store {
	return &Store{
		Fixed:   NewTable(routeFixed),
		Dynamic: NewTable(routeDynamic),
	}
}

// Path returns the configuration file backing the store, if any.
func (s *Store) Path() string { return s.path }

// LoadFile reads a parameter CSV into a new store.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open params: %w", err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.path = path
	return s, nil
}

// Load parses parameter rows from r.
func Load(r io.Reader) (*Store, error) {
	s := NewStore()
	cr := newReader(r)
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRow, err)
		}
		line++
		if isBlank(rec) || isHeader(rec) {
			continue
		}
		if err := s.apply(rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
	}
	return s, nil
}

func (s *Store) apply(rec []string) error {
	if len(rec) < 4 {
		return fmt.Errorf("%w: want 4 columns, got %d", ErrBadRow, len(rec))
	}
	name := strings.TrimSpace(rec[0])
	if name == "" {
		return fmt.Errorf("%w: empty variable name", ErrBadRow)
	}
	kind, err := ParseKind(rec[1])
	if err != nil {
		return err
	}
	v, err := ParseValue(kind, rec[3])
	if err != nil {
		return fmt.Errorf("%q: %w", name, err)
	}

	route := strings.ToLower(strings.TrimSpace(rec[2]))
	var t *Table
	switch route {
	case routeFixed:
		t = s.Fixed
	case routeDynamic, routeState:
		t = s.Dynamic
	default:
		return fmt.Errorf("%w: %q routed to unknown table %q", ErrBadRow, name, rec[2])
	}
	p, err := t.AddOrUpdate(name, v)
	if err != nil {
		return err
	}
	if route == routeState {
		p.IsState = true
	}
	return nil
}

// Persist updates a value in memory and synchronises the backing
// configuration file. The row is rewritten in place, or appended when the
// file has no row for name yet. A store without a backing file only updates
// memory.
func (s *Store) Persist(t *Table, name string, v Value) error {
	p, err := t.AddOrUpdate(name, v)
	if err != nil {
		return err
	}
	if s.path == "" {
		return nil
	}
	return s.rewrite(t, p)
}

func (s *Store) rewrite(t *Table, p *Param) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("stat params: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}

	route := t.Name()
	if p.IsState {
		route = routeState
	}
	value := p.Value().Format()

	// Only the value field of matching rows changes; every other line,
	// comments and blank lines included, is copied as is.
	var out bytes.Buffer
	replaced := false
	for _, line := range splitLines(data) {
		rec, ok := parseRow(line)
		if !ok || strings.TrimSpace(rec[0]) != p.Name || !sameTable(rec[2], t.Name()) {
			out.Write(line)
			continue
		}
		rec[3] = value
		if err := writeRow(&out, rec, lineEnding(line)); err != nil {
			return fmt.Errorf("write params: %w", err)
		}
		replaced = true
	}
	if !replaced {
		if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
			out.WriteString("\n")
		}
		if err := writeRow(&out, []string{p.Name, p.Kind().String(), route, value}, "\n"); err != nil {
			return fmt.Errorf("write params: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".params-*.csv")
	if err != nil {
		return fmt.Errorf("write params: %w", err)
	}
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write params: %w", err)
	}
	if _, err := tmp.Write(out.Bytes()); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write params: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// splitLines splits data after every newline, keeping the terminators.
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, data)
			break
		}
		lines = append(lines, data[:i+1])
		data = data[i+1:]
	}
	return lines
}

func lineEnding(line []byte) string {
	switch {
	case bytes.HasSuffix(line, []byte("\r\n")):
		return "\r\n"
	case bytes.HasSuffix(line, []byte("\n")):
		return "\n"
	}
	return ""
}

// parseRow decodes a single parameter row. Comments, blank lines and
// short rows are not rows.
func parseRow(line []byte) ([]string, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] == '#' {
		return nil, false
	}
	rec, err := newReader(bytes.NewReader(line)).Read()
	if err != nil || len(rec) < 4 {
		return nil, false
	}
	return rec, true
}

func writeRow(buf *bytes.Buffer, rec []string, eol string) error {
	var row bytes.Buffer
	w := csv.NewWriter(&row)
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(row.Bytes(), "\r\n"))
	buf.WriteString(eol)
	return nil
}

func sameTable(route, table string) bool {
	route = strings.ToLower(strings.TrimSpace(route))
	if route == routeState {
		route = routeDynamic
	}
	return route == table
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isHeader(rec []string) bool {
	return strings.EqualFold(strings.TrimSpace(rec[0]), "variable_name")
}
