// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vault writes paper summary notes into an Obsidian vault and finds
// notes that already exist for a paper.
package vault

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/pkg/types"
)

const (
	// DefaultPapersFolder is the vault subfolder used when none is configured.
	DefaultPapersFolder = "Papers"

	// headerScanBytes is how much of each note NoteExists reads.
	headerScanBytes = 500
)

// Writer creates notes in one papers folder of a vault.
type Writer struct {
	dir string

	// Now supplies the date used in filenames and note bodies.
	Now func() time.Time

	// DisambiguateFilenames appends the sanitized paper id to the filename,
	// so two papers whose titles slugify alike on the same day do not share
	// a file.
	DisambiguateFilenames bool
}

// NewWriter returns a Writer for vaultPath/papersFolder. The vault root must
// already exist; the papers folder is created when missing.
func NewWriter(vaultPath, papersFolder string) (*Writer, error) {
	if strings.TrimSpace(vaultPath) == "" {
		return nil, errs.Configf("Obsidian vault path required: set OBSIDIAN_VAULT_PATH or obsidian.vault_path")
	}
	info, err := os.Stat(vaultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Configf("Obsidian vault not found: %s", vaultPath)
		}
		return nil, fmt.Errorf("checking vault: %w", err)
	}
	if !info.IsDir() {
		return nil, errs.Configf("Obsidian vault is not a directory: %s", vaultPath)
	}

	if papersFolder == "" {
		papersFolder = DefaultPapersFolder
	}
	dir := filepath.Join(vaultPath, papersFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating papers folder: %w", err)
	}
	return &Writer{dir: dir, Now: time.Now}, nil
}

// Dir returns the papers folder notes are written to.
func (w *Writer) Dir() string { return w.dir }

// Filename returns the note filename for record on the writer's current date.
func (w *Writer) Filename(record types.PaperRecord) string {
	name := w.today() + "-" + Slugify(record.Title)
	if w.DisambiguateFilenames {
		name += "-" + sanitizeID(record.ID)
	}
	return name + ".md"
}

// CreateSummary renders a note for record and writes it in one call,
// replacing any file with the same name. summary may be nil, in which case
// every summary section shows its placeholder. It returns the note path.
func (w *Writer) CreateSummary(record types.PaperRecord, summary *types.SummaryRecord, extras types.NoteExtras) (string, error) {
	if err := record.Validate(); err != nil {
		return "", err
	}

	var sum types.SummaryRecord
	if summary != nil {
		sum = *summary
	}

	var buf bytes.Buffer
	if err := render(&buf, record, sum, extras, w.today()); err != nil {
		return "", fmt.Errorf("rendering note: %w", err)
	}

	path := filepath.Join(w.dir, w.Filename(record))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing note: %w", err)
	}
	return path, nil
}

// NoteExists scans the papers folder for a note whose header names id and
// returns its path, or "" when there is none. The directory is read fresh
// on every call.
func (w *Writer) NoteExists(id string) (string, error) {
	paths, err := w.scan(id, 1)
	if err != nil || len(paths) == 0 {
		return "", err
	}
	return paths[0], nil
}

// FindNotes returns every note in the papers folder whose header names id,
// sorted by filename. Notes written on different days for the same paper
// all appear here.
func (w *Writer) FindNotes(id string) ([]string, error) {
	return w.scan(id, -1)
}

// scan returns up to limit matching notes; a negative limit returns all.
func (w *Writer) scan(id string, limit int) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(w.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	sort.Strings(paths)

	needle := []byte(fmt.Sprintf("arxiv_id: %q", id))
	var found []string
	for _, p := range paths {
		head, err := readHead(p, headerScanBytes)
		if err != nil {
			return nil, err
		}
		if bytes.Contains(head, needle) {
			found = append(found, p)
			if len(found) == limit {
				break
			}
		}
	}
	return found, nil
}

func (w *Writer) today() string {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return now().Format(time.DateOnly)
}

// readHead returns up to n bytes from the start of path.
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening note: %w", err)
	}
	defer f.Close()

	buf := make([]byte, n)
	got, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading note %s: %w", path, err)
	}
	return buf[:got], nil
}
