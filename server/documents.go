package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PavelSyomin/oks-checker/export"
	"github.com/PavelSyomin/oks-checker/parser"
	"github.com/PavelSyomin/oks-checker/pdf"
)

// Pipeline failure classes the API reports separately.
var (
	errNotFound = errors.New("file not found")
	errLoad     = errors.New("file cannot be loaded")
)

// parseDocument runs the pipeline for one stored document: cached snapshot
// or fresh extraction, then the full parse. useCache only narrows the
// configured setting, it cannot enable a disabled cache.
func (s *Server) parseDocument(id string, useCache bool) (parser.Report, error) {
	cfg := s.cfg.Get()
	pdfPath := filepath.Join(cfg.PDFDir, id+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return parser.Report{}, errNotFound
	}

	store := s.snapshots()
	useCache = useCache && cfg.UseCache

	var (
		src parser.Source
		ok  bool
	)
	if useCache {
		src, ok = store.Load(id)
	}
	if !ok {
		var err error
		src, err = pdf.Extract(pdfPath)
		if err != nil {
			return parser.Report{}, fmt.Errorf("%w: %v", errLoad, err)
		}
		if useCache {
			if err := store.Save(id, src); err != nil {
				s.logger.Warn("cannot save snapshot", "id", id, "error", err)
			}
		}
	}

	return s.parser.Parse(src)
}

// parseAndSave parses a document and renders the result into the tmp
// directory in the requested format.
func (s *Server) parseAndSave(id, format string, useCache bool) (string, error) {
	report, err := s.parseDocument(id, useCache)
	if err != nil {
		return "", err
	}
	return s.saveReport(id, format, report)
}

func (s *Server) saveReport(id, format string, report parser.Report) (string, error) {
	path, err := s.tmpPath(id, format)
	if err != nil {
		return "", err
	}

	switch format {
	case "json":
		if err := writeJSONFile(path, report); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
	case "xlsx":
		if err := export.Excel(path, report); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown file type %q", format)
	}

	return path, nil
}

// tmpPath builds a timestamped result path in the tmp directory, creating
// the directory when needed.
func (s *Server) tmpPath(id, format string) (string, error) {
	cfg := s.cfg.Get()
	if err := os.MkdirAll(cfg.TmpDir, 0o755); err != nil {
		return "", fmt.Errorf("creating tmp dir: %w", err)
	}

	ts := time.Now().Format("2006-01-02T15-04-05")
	return filepath.Join(cfg.TmpDir, fmt.Sprintf("%s_%s.%s", id, ts, format)), nil
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.JSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
