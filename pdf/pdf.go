// Package pdf is the document boundary: it turns a permit PDF into the page
// text and raw tables the parser consumes. Tables come from the page content
// streams; text is reconstructed from the same streams, with a plain-text
// fallback for documents whose streams cannot be processed.
package pdf

import (
	"fmt"
	"os"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/PavelSyomin/oks-checker/parser"
)

// Extract pulls page text and raw tables out of one PDF document. Text and
// tables degrade independently: either may come back empty without an error.
// Only a document neither extraction route can read at all fails.
func Extract(path string) (parser.Source, error) {
	src := parser.Source{Text: make(map[int]string)}

	pages, streamErr := readPages(path)
	for _, pg := range pages {
		items := extractTextItems(pg.stream, pg.fonts)
		lines := groupIntoLines(items)
		if t := pageText(lines); t != "" {
			src.Text[pg.number] = t
		}
		src.Tables = append(src.Tables, assembleTables(lines)...)
	}

	if len(src.Text) == 0 {
		text, err := plainText(path)
		if err != nil {
			if streamErr != nil {
				return parser.Source{}, streamErr
			}
			return src, nil
		}
		for p, t := range text {
			src.Text[p] = t
		}
	}

	return src, nil
}

type page struct {
	number int
	stream []byte
	fonts  CMap
}

// readPages opens a PDF and returns each page's decompressed content stream
// together with the page's merged font CMap.
func readPages(path string) ([]page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	ctx, err := pdfcpu.Read(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	if err := pdfcpu.OptimizeXRefTable(ctx); err != nil {
		return nil, fmt.Errorf("optimize xref: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	var pages []page
	for i := 1; i <= ctx.PageCount; i++ {
		pageDict, _, _, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("page %d dict: %w", i, err)
		}

		obj, found := pageDict.Find("Contents")
		if !found {
			continue
		}

		stream, err := resolveContentStream(ctx, obj)
		if err != nil {
			return nil, fmt.Errorf("page %d content stream: %w", i, err)
		}

		pages = append(pages, page{number: i, stream: stream, fonts: pageCMap(ctx, pageDict)})
	}

	return pages, nil
}

// resolveContentStream dereferences and decompresses a Contents entry, which
// may be a single stream or an array of streams.
func resolveContentStream(ctx *model.Context, obj types.Object) ([]byte, error) {
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}

	switch v := obj.(type) {
	case types.StreamDict:
		if err := v.Decode(); err != nil {
			return nil, fmt.Errorf("decode stream: %w", err)
		}
		return v.Content, nil

	case types.Array:
		var joined []byte
		for _, item := range v {
			data, err := resolveContentStream(ctx, item)
			if err != nil {
				return nil, err
			}
			joined = append(joined, data...)
			joined = append(joined, '\n')
		}
		return joined, nil

	default:
		return nil, fmt.Errorf("unexpected Contents type: %T", obj)
	}
}

// plainText extracts per-page text the simple way, for documents whose
// content streams defeat the tokenizer.
func plainText(path string) (map[int]string, error) {
	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	text := make(map[int]string)
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			text[i] = s
		}
	}
	return text, nil
}
