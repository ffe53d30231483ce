package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/PavelSyomin/oks-checker/cache"
	"github.com/PavelSyomin/oks-checker/export"
	"github.com/PavelSyomin/oks-checker/geo"
	"github.com/PavelSyomin/oks-checker/morph"
	"github.com/PavelSyomin/oks-checker/parser"
	"github.com/PavelSyomin/oks-checker/pdf"
)

var (
	parseJSONOut string
	parseXLSXOut string
	parseNoCache bool
	parseDedupe  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <input.pdf | directory>",
	Short: "Parse permit PDFs into JSON and XLSX reports",
	Long: `Parse extracts the structured report out of one permit PDF, or out of
every *.pdf file in a directory, and writes a JSON and an XLSX file next
to each input. Single-file mode can redirect them with --json and --xlsx.

Extraction snapshots are kept under the configured cache directory, so a
second parse of the same document skips the PDF decoding step. In
directory mode --dedupe collapses permits that share a cadastral number
into the latest issued one before any output is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseJSONOut, "json", "", "JSON output path (single-file mode only)")
	parseCmd.Flags().StringVar(&parseXLSXOut, "xlsx", "", "XLSX output path (single-file mode only)")
	parseCmd.Flags().BoolVar(&parseNoCache, "no-cache", false, "neither read nor write extraction snapshots")
	parseCmd.Flags().BoolVar(&parseDedupe, "dedupe", false, "drop superseded duplicate permits in directory mode")
	rootCmd.AddCommand(parseCmd)
}

// document is one parsed permit together with its source path.
type document struct {
	path   string
	id     string
	report parser.Report
	pages  int
	tables int
}

// newParser assembles the pipeline with the embedded morphological
// dictionary and geographic reference.
func newParser() (*parser.Parser, error) {
	dict, err := morph.NewDictionary()
	if err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}
	index, err := geo.NewIndex(dict)
	if err != nil {
		return nil, fmt.Errorf("loading geo index: %w", err)
	}
	return parser.New(dict, index), nil
}

func runParse(cmd *cobra.Command, args []string) error {
	m, err := setup()
	if err != nil {
		return err
	}
	cfg := m.Get()

	p, err := newParser()
	if err != nil {
		return err
	}

	var store *cache.Store
	if cfg.UseCache && !parseNoCache {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
		store = cache.New(cfg.CacheDir)
	}

	input := args[0]
	info, err := os.Stat(input)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		doc, err := parseOne(p, store, input)
		if err != nil {
			return err
		}
		return writeOutputs(doc, parseJSONOut, parseXLSXOut)
	}

	if parseJSONOut != "" || parseXLSXOut != "" {
		return fmt.Errorf("--json and --xlsx apply to single-file mode only")
	}

	matches, err := filepath.Glob(filepath.Join(input, "*.pdf"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no PDF files found in %s", input)
	}
	sort.Strings(matches)

	var docs []document
	failed := 0
	for _, path := range matches {
		doc, err := parseOne(p, store, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(path), err)
			failed++
			continue
		}
		docs = append(docs, doc)
	}

	if parseDedupe {
		docs = deduplicate(docs)
	}

	for _, doc := range docs {
		if err := writeOutputs(doc, "", ""); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(doc.path), err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(matches))
	}
	return nil
}

// parseOne runs the pipeline for a single PDF, going through the snapshot
// cache when one is configured.
func parseOne(p *parser.Parser, store *cache.Store, path string) (document, error) {
	id := cache.Key(path)

	var (
		src parser.Source
		hit bool
	)
	if store != nil {
		src, hit = store.Load(id)
	}
	if !hit {
		var err error
		src, err = pdf.Extract(path)
		if err != nil {
			return document{}, err
		}
		if store != nil {
			if err := store.Save(id, src); err != nil {
				fmt.Fprintf(os.Stderr, "%s: cannot save snapshot: %v\n", filepath.Base(path), err)
			}
		}
	}

	report, err := p.Parse(src)
	if err != nil {
		return document{}, err
	}
	return document{
		path:   path,
		id:     id,
		report: report,
		pages:  len(src.Text),
		tables: len(src.Tables),
	}, nil
}

// writeOutputs renders a parsed document next to its source file unless the
// single-file overrides redirect it.
func writeOutputs(doc document, jsonOut, xlsxOut string) error {
	dir := filepath.Dir(doc.path)
	if jsonOut == "" {
		jsonOut = filepath.Join(dir, doc.id+".json")
	}
	if xlsxOut == "" {
		xlsxOut = filepath.Join(dir, doc.id+".xlsx")
	}

	f, err := os.Create(jsonOut)
	if err != nil {
		return err
	}
	if err := export.JSON(f, doc.report); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", jsonOut, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := export.Excel(xlsxOut, doc.report); err != nil {
		return fmt.Errorf("writing %s: %w", xlsxOut, err)
	}

	fmt.Fprintf(os.Stderr, "%s: %d pages, %d tables → %s, %s\n",
		filepath.Base(doc.path), doc.pages, doc.tables,
		filepath.Base(jsonOut), filepath.Base(xlsxOut))
	return nil
}
