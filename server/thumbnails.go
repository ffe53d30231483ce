package server

import (
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/PavelSyomin/oks-checker/cache"
)

// makeThumbnail renders the first page of a PDF as a small JPEG preview
// using ImageMagick. Thumbnails are best-effort: a missing convert binary
// or a broken file only logs a warning.
func (s *Server) makeThumbnail(pdfPath string) {
	dir := s.cfg.Get().ThumbnailsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("cannot create thumbnails dir", "error", err)
		return
	}

	out := filepath.Join(dir, cache.Key(pdfPath)+"_168x.jpg")
	cmd := exec.Command("convert", "-density", "100", pdfPath+"[0]", "-resize", "168x", "-flatten", out)
	if err := cmd.Run(); err != nil {
		s.logger.Warn("cannot make thumbnail", "file", pdfPath, "error", err)
	}
}

// thumbnailFor returns the thumbnail file name for a document, or "" when
// none was generated.
func (s *Server) thumbnailFor(id string) string {
	name := id + "_168x.jpg"
	if _, err := os.Stat(filepath.Join(s.cfg.Get().ThumbnailsDir, name)); err != nil {
		return ""
	}
	return name
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("file"))
	http.ServeFile(w, r, filepath.Join(s.cfg.Get().ThumbnailsDir, name))
}
