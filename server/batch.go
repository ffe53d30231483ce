package server

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/PavelSyomin/oks-checker/cache"
	"github.com/PavelSyomin/oks-checker/export"
	"github.com/PavelSyomin/oks-checker/parser"
)

// task tracks one background batch run. Handlers never touch the fields
// directly, they read a snapshot.
type task struct {
	id string

	mu      sync.Mutex
	status  string
	current string
	count   int
	total   int
	log     []string
	results map[string]string
}

// taskView is the wire form of a task, polled by the batch progress page.
type taskView struct {
	Status  string            `json:"status"`
	Log     []string          `json:"log"`
	Count   int               `json:"count"`
	Total   int               `json:"total"`
	Result  map[string]string `json:"result"`
	Current string            `json:"current"`
}

func (t *task) snapshot() taskView {
	t.mu.Lock()
	defer t.mu.Unlock()

	view := taskView{
		Status:  t.status,
		Log:     append([]string(nil), t.log...),
		Count:   t.count,
		Total:   t.total,
		Result:  make(map[string]string, len(t.results)),
		Current: t.current,
	}
	for k, v := range t.results {
		view.Result[k] = v
	}
	return view
}

func (t *task) logLine(line string) {
	t.mu.Lock()
	t.log = append(t.log, line)
	t.mu.Unlock()
}

func (t *task) setCurrent(current string) {
	t.mu.Lock()
	t.current = current
	t.mu.Unlock()
}

func (t *task) advance() {
	t.mu.Lock()
	t.count++
	t.mu.Unlock()
}

func (t *task) storeResult(format, path string) {
	t.mu.Lock()
	t.results[format] = path
	t.mu.Unlock()
}

func (t *task) finish() {
	t.mu.Lock()
	t.status = "Completed"
	t.current = "Готово"
	t.mu.Unlock()
}

type taskManager struct {
	mu    sync.Mutex
	tasks map[string]*task
}

func newTaskManager() *taskManager {
	return &taskManager{tasks: make(map[string]*task)}
}

func (m *taskManager) create(total int) *task {
	t := &task{
		id:      uuid.New().String(),
		status:  "Started",
		current: "Подготовка",
		total:   total,
		results: map[string]string{"json": "", "xlsx": ""},
	}

	m.mu.Lock()
	m.tasks[t.id] = t
	m.mu.Unlock()
	return t
}

func (m *taskManager) get(id string) (*task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok
}

func (s *Server) handleBatchPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "batch.html", s.listFiles())
}

func formBool(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// handleBatchProcess accepts the selection form and starts a background
// task over the chosen documents.
func (s *Server) handleBatchProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Status: "Error", Message: "Cannot read form"})
		return
	}

	names := r.Form["devplans"]
	if len(names) == 0 {
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Status: "Error", Message: "No development plans selected"})
		return
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		ids = append(ids, cache.Key(strings.TrimSpace(name)))
	}
	useCache := formBool(r.Form.Get("use_cache"))

	t := s.tasks.create(len(ids))
	go s.runBatch(t, ids, useCache)

	s.logger.Info("batch task started", "task", t.id, "documents", len(ids))
	s.render(w, http.StatusAccepted, "batch-process.html", map[string]string{"TaskID": t.id})
}

// runBatch processes the selected documents one by one, collecting parsed
// reports into combined JSON and XLSX files in the tmp directory.
func (s *Server) runBatch(t *task, ids []string, useCache bool) {
	t.logLine("Получена задача на пакетную обработку")
	t.logLine("ID документов: " + strings.Join(ids, ", "))

	combined := make(map[string]any, len(ids))
	var reports []parser.Report
	for _, id := range ids {
		t.setCurrent("Обрабатывается файл " + id)
		t.logLine("Анализируем файл " + id)

		report, err := s.parseDocument(id, useCache)
		if err != nil {
			s.logger.Error("batch parse failed", "id", id, "error", err)
			t.logLine("Ошибка при анализе файла " + id)
			combined[id] = "Error"
			t.advance()
			continue
		}

		combined[id] = report
		reports = append(reports, report)
		t.logLine("Файл " + id + " проанализирован")
		t.advance()
	}

	if path, err := s.saveBatchJSON(combined); err != nil {
		s.logger.Error("cannot save batch json", "task", t.id, "error", err)
	} else {
		t.storeResult("json", path)
	}
	if path, err := s.saveBatchExcel(reports); err != nil {
		s.logger.Error("cannot save batch xlsx", "task", t.id, "error", err)
	} else {
		t.storeResult("xlsx", path)
	}

	t.finish()
	s.logger.Info("batch task completed", "task", t.id, "documents", len(ids))
}

func (s *Server) saveBatchJSON(combined map[string]any) (string, error) {
	path, err := s.tmpPath("batch", "json")
	if err != nil {
		return "", err
	}
	if err := writeJSONFile(path, combined); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) saveBatchExcel(reports []parser.Report) (string, error) {
	path, err := s.tmpPath("batch", "xlsx")
	if err != nil {
		return "", err
	}
	if err := export.Excel(path, reports...); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) saveBatchLog(t *task) (string, error) {
	view := t.snapshot()
	if len(view.Log) == 0 {
		return "", nil
	}

	path, err := s.tmpPath("log_task"+t.id, "txt")
	if err != nil {
		return "", err
	}
	data := strings.Join(view.Log, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) handleBatchTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tasks.get(r.PathValue("id"))
	if !ok {
		s.writeJSON(w, http.StatusOK, apiResponse{Status: "Not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, apiResponse{Status: "OK", Data: t.snapshot()})
}

func (s *Server) handleBatchTaskResult(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tasks.get(r.PathValue("id"))
	if !ok {
		s.writeJSON(w, http.StatusOK, apiResponse{Status: "Not found"})
		return
	}

	var path string
	switch r.PathValue("type") {
	case "log":
		var err error
		path, err = s.saveBatchLog(t)
		if err != nil {
			s.logger.Error("cannot save batch log", "task", t.id, "error", err)
		}
	case "json", "xlsx":
		path = t.snapshot().Result[r.PathValue("type")]
	}

	if path == "" {
		s.writeJSON(w, http.StatusOK, apiResponse{Status: "Error", Message: "Cannot download file"})
		return
	}
	serveAttachment(w, r, path)
}
