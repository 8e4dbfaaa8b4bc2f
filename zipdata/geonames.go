// Package zipdata loads the postal reference dataset: ingest from the
// GeoNames postal-code export and a versioned binary cache so serving
// never re-parses the TSV.
package zipdata

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"

	"github.com/ShawCole/radius-zip/zipmodel"
)

// GeoNamesURL is the US postal-code export. The archive contains US.txt,
// a 12-field tab-separated file.
const GeoNamesURL = "https://download.geonames.org/export/zip/US.zip"

const geoNamesEntry = "US.txt"

// GeoNames US.txt columns.
const (
	colPostalCode = 1
	colPlaceName  = 2
	colAdminCode1 = 4
	colLatitude   = 9
	colLongitude  = 10
	fieldCount    = 12
)

// downloadTimeout bounds the whole archive fetch; the export is ~3MB.
const downloadTimeout = 5 * time.Minute

// Download fetches the GeoNames archive into memory. The request is
// cancelled when ctx is, and times out on its own so a stalled mirror
// cannot hang the caller forever.
func Download(ctx context.Context, url string, log *slog.Logger) ([]byte, error) {
	if url == "" {
		url = GeoNamesURL
	}
	log.Info("downloading postal dataset", "url", url)

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("downloading postal dataset: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading postal dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading postal dataset: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading postal dataset body: %w", err)
	}

	log.Info("downloaded postal dataset", "size", humanize.Bytes(uint64(len(body))))
	return body, nil
}

// LoadArchive parses records out of a GeoNames zip archive held in memory.
func LoadArchive(archive []byte, log *slog.Logger) ([]zipmodel.Record, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("opening postal archive: %w", err)
	}

	for _, f := range zipReader.File {
		if f.Name != geoNamesEntry {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		defer rc.Close()

		return ParseTSV(rc, int64(f.UncompressedSize64), log)
	}

	return nil, fmt.Errorf("postal archive has no %s entry", geoNamesEntry)
}

// LoadArchiveFile parses records from a GeoNames zip archive on disk.
func LoadArchiveFile(path string, log *slog.Logger) ([]zipmodel.Record, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading postal archive: %w", err)
	}
	return LoadArchive(body, log)
}

// ParseTSV reads the tab-separated GeoNames format. Malformed rows are
// skipped and logged, never fatal: the upstream export routinely carries a
// few entries with missing coordinates. size drives progress reporting and
// may be 0 when unknown.
func ParseTSV(r io.Reader, size int64, log *slog.Logger) ([]zipmodel.Record, error) {
	if size > 0 {
		bar := pb.Start64(size)
		bar.Set("prefix", "parsing postal records")
		bar.Set(pb.Bytes, true)
		defer bar.Finish()
		r = bar.NewProxyReader(r)
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = '\t'
	csvReader.FieldsPerRecord = fieldCount
	csvReader.LazyQuotes = true

	var records []zipmodel.Record
	skipped := 0

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("skipping unreadable row", "error", err)
			skipped++
			continue
		}

		lat, err := strconv.ParseFloat(row[colLatitude], 64)
		if err != nil {
			log.Warn("skipping row with bad latitude", "zip", row[colPostalCode], "error", err)
			skipped++
			continue
		}
		lon, err := strconv.ParseFloat(row[colLongitude], 64)
		if err != nil {
			log.Warn("skipping row with bad longitude", "zip", row[colPostalCode], "error", err)
			skipped++
			continue
		}

		point := orb.Point{lon, lat}
		if err := zipmodel.ValidatePoint(point); err != nil {
			log.Warn("skipping row with out-of-range coordinates", "zip", row[colPostalCode], "error", err)
			skipped++
			continue
		}

		records = append(records, zipmodel.Record{
			Zip:   row[colPostalCode],
			City:  row[colPlaceName],
			State: row[colAdminCode1],
			Point: point,
		})
	}

	log.Info("parsed postal records",
		"records", humanize.Comma(int64(len(records))),
		"skipped", skipped,
	)
	return records, nil
}
