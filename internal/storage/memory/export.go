package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/OCAP2/royale/internal/storage/memory/export/v1"
	"github.com/OCAP2/royale/pkg/core"
)

var unsafeFilename = strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_")

// exportFilename is <matchId>_<start timestamp>.json[.gz].
func exportFilename(info core.MatchInfo, compress bool) string {
	name := fmt.Sprintf("%s_%s.json", unsafeFilename.Replace(info.ID), info.StartedAt.UTC().Format("20060102_150405"))
	if compress {
		name += ".gz"
	}
	return name
}

// exportJSON writes the match data to a (gzipped) JSON file
func (b *Backend) exportJSON(record *MatchRecord, result core.MatchResult) (string, error) {
	export := v1.Build(&v1.MatchData{
		ServerVersion: b.version,
		Info:          record.Info,
		Result:        result,
		EndTick:       record.EndTick,
		Events:        record.Events,
		Kills:         record.Kills,
	})

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, exportFilename(record.Info, b.cfg.CompressOutput))

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

// ReadExport loads a replay file written by this backend.
func ReadExport(path string) (v1.Export, error) {
	var export v1.Export
	f, err := os.Open(path)
	if err != nil {
		return export, err
	}
	defer f.Close()

	var dec *json.Decoder
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return export, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		dec = json.NewDecoder(gz)
	} else {
		dec = json.NewDecoder(f)
	}
	if err := dec.Decode(&export); err != nil {
		return export, fmt.Errorf("failed to decode export: %w", err)
	}
	return export, nil
}
