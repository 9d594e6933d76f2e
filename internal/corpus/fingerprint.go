package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"docsearch/internal/domain"
	"docsearch/internal/fsutil"
)

// ErrCorruptFingerprint is returned when the fingerprint file exists but cannot be decoded.
var ErrCorruptFingerprint = errors.New("corrupt fingerprint")

// Fingerprint maps document names to modification times in epoch seconds.
type Fingerprint map[string]float64

// ModTimeSeconds converts t to fractional epoch seconds.
func ModTimeSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Names returns the document names in sorted order.
func (f Fingerprint) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both fingerprints hold the same names with identical times.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if len(f) != len(other) {
		return false
	}
	for name, ts := range f {
		ots, ok := other[name]
		if !ok || ots != ts {
			return false
		}
	}
	return true
}

// Key returns a stable digest identifying the corpus snapshot.
func (f Fingerprint) Key() string {
	h := sha256.New()
	for _, name := range f.Names() {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatFloat(f[name], 'g', -1, 64)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ReadFingerprint loads a fingerprint file. A missing file yields an error
// matching os.ErrNotExist; undecodable content yields ErrCorruptFingerprint.
func ReadFingerprint(path string) (Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fp Fingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFingerprint, err)
	}
	if fp == nil {
		return nil, fmt.Errorf("%w: not an object", ErrCorruptFingerprint)
	}
	return fp, nil
}

// WriteFingerprint replaces the fingerprint file with fp.
func WriteFingerprint(path string, fp Fingerprint) error {
	if fp == nil {
		fp = Fingerprint{}
	}
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(fp)
	})
}

// FingerprintOf builds the fingerprint of an already loaded document set.
func FingerprintOf(docs []domain.Document) Fingerprint {
	fp := make(Fingerprint, len(docs))
	for _, d := range docs {
		fp[d.Name] = ModTimeSeconds(d.ModTime)
	}
	return fp
}
