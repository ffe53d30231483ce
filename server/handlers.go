package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PavelSyomin/oks-checker/cache"
)

const dateTimeFormat = "02.01.2006 в 15:04"

// fileEntry is one stored PDF as shown on the list and view pages.
type fileEntry struct {
	Name      string
	ID        string
	Date      string
	Status    string
	Thumbnail string
}

func (s *Server) entryFor(id string) fileEntry {
	e := fileEntry{
		Name:      id + ".pdf",
		ID:        id,
		Status:    "not_parsed",
		Thumbnail: s.thumbnailFor(id),
	}
	if s.snapshots().Has(id) {
		e.Status = "parsed"
	}
	path := filepath.Join(s.cfg.Get().PDFDir, id+".pdf")
	if info, err := os.Stat(path); err == nil {
		e.Date = info.ModTime().Format(dateTimeFormat)
	}
	return e
}

// listFiles collects the stored PDFs, unparsed documents first.
func (s *Server) listFiles() []fileEntry {
	paths, _ := filepath.Glob(filepath.Join(s.cfg.Get().PDFDir, "*.pdf"))

	entries := make([]fileEntry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, s.entryFor(cache.Key(p)))
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Status != entries[j].Status {
			return entries[i].Status < entries[j].Status
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// queryID extracts the document id from the file_name query parameter,
// which may come with or without the .pdf extension.
func queryID(r *http.Request) string {
	name := strings.TrimSpace(r.URL.Query().Get("file_name"))
	if name == "" {
		return ""
	}
	return cache.Key(name)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "main.html", s.listFiles())
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "upload.html", nil)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := queryID(r)
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, http.StatusOK, "view.html", s.entryFor(id))
}

// handleParse starts a background parse and sends the user back to the
// document page; the result lands in the snapshot cache and tmp.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	id := queryID(r)
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	go func() {
		if _, err := s.parseAndSave(id, "json", true); err != nil {
			s.logger.Error("background parse failed", "id", id, "error", err)
		}
	}()

	http.Redirect(w, r, "/view?file_name="+url.QueryEscape(id), http.StatusFound)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := queryID(r)
	fileType := r.URL.Query().Get("file_type")

	path, err := s.parseAndSave(id, fileType, true)
	if err != nil {
		s.logger.Error("download failed", "id", id, "type", fileType, "error", err)
		s.writeJSON(w, http.StatusOK, apiResponse{Status: "Error", Message: "Cannot download file"})
		return
	}
	serveAttachment(w, r, path)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := queryID(r)
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	path := filepath.Join(s.cfg.Get().PDFDir, id+".pdf")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("cannot delete file", "path", path, "error", err)
	}
	if err := s.snapshots().Delete(id); err != nil {
		s.logger.Error("cannot delete snapshot", "id", id, "error", err)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// 500MB for the whole multipart request.
const maxUploadSize = 500 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeJSON(w, http.StatusOK, apiResponse{Status: "Error", Message: "Cannot read uploaded files"})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.writeJSON(w, http.StatusOK, apiResponse{Status: "Error", Message: "No files uploaded"})
		return
	}

	cfg := s.cfg.Get()
	if err := os.MkdirAll(cfg.PDFDir, 0o755); err != nil {
		s.logger.Error("cannot create pdf dir", "error", err)
		s.writeJSON(w, http.StatusOK, apiResponse{Status: "Error", Message: "Cannot store uploaded file"})
		return
	}

	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			s.writeJSON(w, http.StatusOK, apiResponse{Status: "Error", Message: "Looks like that you have uploaded non-PDF file"})
			return
		}

		dst := filepath.Join(cfg.PDFDir, name)
		if err := storeUpload(fh, dst); err != nil {
			s.logger.Error("upload failed", "file", name, "error", err)
			s.writeJSON(w, http.StatusOK, apiResponse{Status: "Error", Message: "Cannot store uploaded file"})
			return
		}

		s.logger.Info("stored uploaded file", "file", name)
		s.makeThumbnail(dst)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func storeUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
