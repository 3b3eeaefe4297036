package index

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
)

// SnapshotVersion is bumped whenever the encoded layout changes.
const SnapshotVersion = 1

// SnapshotFile is the snapshot's name inside the data directory.
const SnapshotFile = "index.gob"

// Fingerprint records what a snapshot was built from, so a caller can
// tell whether it still answers the current request.
type Fingerprint struct {
	Roots    []string
	FileType string
	Exclude  []string
	K        int
}

// Matches reports whether two fingerprints describe the same corpus and k.
func (f Fingerprint) Matches(other Fingerprint) bool {
	return f.K == other.K &&
		f.FileType == other.FileType &&
		slices.Equal(f.Roots, other.Roots) &&
		slices.Equal(f.Exclude, other.Exclude)
}

// Header is the part of a snapshot readable without decoding the index.
type Header struct {
	Version     int
	Fingerprint Fingerprint
	CreatedAt   time.Time
	Documents   int
	Terms       int
}

// wireIndex is the exported mirror of Index used by gob.
type wireIndex struct {
	K           int
	Docs        []string
	Terms       []string
	Occurrences map[TermID]map[DocID]int
	Postings    map[string][]TermID
}

// GobEncode implements gob.GobEncoder.
func (idx *Index) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(wireIndex{
		K:           idx.k,
		Docs:        idx.docs,
		Terms:       idx.terms,
		Occurrences: idx.occurrences,
		Postings:    idx.postings,
	})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (idx *Index) GobDecode(data []byte) error {
	var w wireIndex
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	if err := ValidateK(w.K); err != nil {
		return err
	}
	if err := w.checkIDs(); err != nil {
		return err
	}

	idx.k = w.K
	idx.docs = w.Docs
	idx.terms = w.Terms
	idx.occurrences = w.Occurrences
	idx.postings = w.Postings
	if idx.occurrences == nil {
		idx.occurrences = make(map[TermID]map[DocID]int)
	}
	if idx.postings == nil {
		idx.postings = make(map[string][]TermID)
	}
	idx.termIDs = make(map[string]TermID, len(w.Terms))
	for i, t := range w.Terms {
		idx.termIDs[t] = TermID(i)
	}
	return nil
}

// checkIDs rejects term and doc ids outside the decoded tables.
func (w *wireIndex) checkIDs() error {
	for term, docs := range w.Occurrences {
		if int(term) < 0 || int(term) >= len(w.Terms) {
			return fmt.Errorf("occurrences reference term %d of %d", term, len(w.Terms))
		}
		for doc := range docs {
			if int(doc) < 0 || int(doc) >= len(w.Docs) {
				return fmt.Errorf("term %d references doc %d of %d", term, doc, len(w.Docs))
			}
		}
	}
	for g, ids := range w.Postings {
		for _, id := range ids {
			if int(id) < 0 || int(id) >= len(w.Terms) {
				return fmt.Errorf("shingle %q references term %d of %d", g, id, len(w.Terms))
			}
		}
	}
	return nil
}

// Save writes idx and fp to path via a temp file and rename, so readers
// never see a half-written snapshot.
func Save(path string, idx *Index, fp Fingerprint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}

	w := bufio.NewWriter(file)
	enc := gob.NewEncoder(w)
	header := Header{
		Version:     SnapshotVersion,
		Fingerprint: fp,
		CreatedAt:   time.Now().UTC(),
		Documents:   idx.Len(),
		Terms:       idx.VocabularySize(),
	}
	if err := enc.Encode(header); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to encode snapshot header: %w", err)
	}
	if err := enc.Encode(idx); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save. A missing file yields an
// ErrCodeFileNotFound error; anything undecodable, ErrCodeCorruptIndex.
func Load(path string) (*Index, Fingerprint, error) {
	file, dec, header, err := openSnapshot(path)
	if err != nil {
		return nil, Fingerprint{}, err
	}
	defer file.Close()

	idx := &Index{}
	if err := dec.Decode(idx); err != nil {
		return nil, Fingerprint{}, corrupt(path, err)
	}
	return idx, header.Fingerprint, nil
}

// ReadHeader returns a snapshot's header without decoding the index.
func ReadHeader(path string) (Header, error) {
	file, _, header, err := openSnapshot(path)
	if err != nil {
		return Header{}, err
	}
	_ = file.Close()
	return header, nil
}

func openSnapshot(path string) (*os.File, *gob.Decoder, Header, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, Header{}, trovoerrors.New(trovoerrors.ErrCodeFileNotFound,
			fmt.Sprintf("no index snapshot at %s", path), err).
			WithSuggestion("Run 'trovo index' first")
	}
	if err != nil {
		return nil, nil, Header{}, trovoerrors.IOError(fmt.Sprintf("failed to open snapshot %s", path), err)
	}

	dec := gob.NewDecoder(bufio.NewReader(file))

	var header Header
	if err := dec.Decode(&header); err != nil {
		_ = file.Close()
		return nil, nil, Header{}, corrupt(path, err)
	}
	if header.Version != SnapshotVersion {
		_ = file.Close()
		return nil, nil, Header{}, corrupt(path,
			fmt.Errorf("snapshot version %d, want %d", header.Version, SnapshotVersion))
	}
	return file, dec, header, nil
}

func corrupt(path string, err error) error {
	return trovoerrors.New(trovoerrors.ErrCodeCorruptIndex,
		fmt.Sprintf("index snapshot %s is unreadable", path), err).
		WithSuggestion("Run 'trovo index' to rebuild it")
}
