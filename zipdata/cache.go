package zipdata

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"github.com/ShawCole/radius-zip/zipmodel"
)

// Cache format: magic bytes, a little-endian compatibility level, then a
// zstd frame holding a gob-encoded record slice. The level is bumped on
// any incompatible change to the record layout.
var magicBytes = []byte("RZCv")

const compatibilityLevel uint32 = 1

// SaveRecords writes the dataset cache to w.
func SaveRecords(records []zipmodel.Record, w io.Writer) error {
	if _, err := w.Write(magicBytes); err != nil {
		return fmt.Errorf("writing magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, compatibilityLevel); err != nil {
		return fmt.Errorf("writing compatibility level: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if err := gob.NewEncoder(enc).Encode(records); err != nil {
		enc.Close()
		return fmt.Errorf("encoding records: %w", err)
	}
	return enc.Close()
}

// LoadRecords reads a dataset cache written by SaveRecords.
func LoadRecords(r io.Reader, log *slog.Logger) ([]zipmodel.Record, error) {
	magic := make([]byte, len(magicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading magic bytes: %w", err)
	}
	if string(magic) != string(magicBytes) {
		return nil, fmt.Errorf("not a radius-zip dataset cache (magic %q)", magic)
	}

	var level uint32
	if err := binary.Read(r, binary.LittleEndian, &level); err != nil {
		return nil, fmt.Errorf("reading compatibility level: %w", err)
	}
	if level != compatibilityLevel {
		return nil, fmt.Errorf("unsupported cache compatibility level %d", level)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	var records []zipmodel.Record
	if err := gob.NewDecoder(dec).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	log.Info("loaded dataset cache", "records", humanize.Comma(int64(len(records))))
	return records, nil
}

// SaveFile writes the dataset cache to path.
func SaveFile(records []zipmodel.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	if err := SaveRecords(records, f); err != nil {
		return err
	}
	return f.Close()
}

// LoadFile reads a dataset cache from path.
func LoadFile(path string, log *slog.Logger) ([]zipmodel.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	return LoadRecords(f, log)
}
