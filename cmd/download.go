package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	downloadServer string
	downloadDir    string
	downloadFormat string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Fetch parsed reports from a running server",
	Long: `Download lists the documents a running oks-checker server holds
(GET /devplans) and fetches the parsed report of each one into a local
directory. Reports that already exist locally are skipped, so repeated
runs only pick up new documents.

The fetched JSON files are the same shape the parse command writes and
feed directly into the viz command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if downloadFormat != "json" && downloadFormat != "xlsx" {
			return fmt.Errorf("invalid --format %q; valid options: json, xlsx", downloadFormat)
		}
		if err := os.MkdirAll(downloadDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		return fetchReports(strings.TrimRight(downloadServer, "/"), downloadDir, downloadFormat)
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadServer, "server", "http://127.0.0.1:8000", "base URL of a running server")
	downloadCmd.Flags().StringVar(&downloadDir, "dir", ".", "output directory for downloaded reports")
	downloadCmd.Flags().StringVar(&downloadFormat, "format", "json", "report format: json or xlsx")
	rootCmd.AddCommand(downloadCmd)
}

// fetchReports downloads the parsed report of every document the server
// lists. Existing files are kept, failing documents are reported and
// skipped.
func fetchReports(baseURL, dir, format string) error {
	names, err := listDevplans(baseURL)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("the server holds no documents")
	}

	var downloaded, skipped int
	for _, name := range names {
		id := strings.TrimSuffix(name, ".pdf")
		outPath := filepath.Join(dir, id+"."+format)

		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(os.Stderr, "skip %s (already exists)\n", filepath.Base(outPath))
			skipped++
			continue
		}

		reportURL := fmt.Sprintf("%s/devplans/%s/%s", baseURL, url.PathEscape(id), format)
		fmt.Fprintf(os.Stderr, "downloading %s\n", reportURL)

		if err := fetchReport(reportURL, outPath, format); err != nil {
			fmt.Fprintf(os.Stderr, "error downloading %s: %v\n", id, err)
			continue
		}
		downloaded++
	}

	fmt.Fprintf(os.Stderr, "Done: %d downloaded, %d skipped\n", downloaded, skipped)
	return nil
}

func listDevplans(baseURL string) ([]string, error) {
	resp, err := http.Get(baseURL + "/devplans")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d listing documents", resp.StatusCode)
	}
	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return nil, fmt.Errorf("decoding document list: %w", err)
	}
	return names, nil
}

// fetchReport downloads one report. The server answers document failures as
// JSON envelopes with HTTP 200, so the payload has to be inspected: a JSON
// report arrives wrapped in {"status":"OK","data":...} and is unwrapped
// before saving, an XLSX report is a zip and starts with "PK".
func fetchReport(reportURL, dest, format string) error {
	resp, err := http.Get(reportURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if format == "json" {
		var envelope struct {
			Status  string          `json:"status"`
			Message string          `json:"message"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		if envelope.Status != "OK" {
			return fmt.Errorf("server: %s", envelope.Message)
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, envelope.Data, "", "\t"); err != nil {
			return err
		}
		return os.WriteFile(dest, buf.Bytes(), 0o644)
	}

	if !bytes.HasPrefix(body, []byte("PK")) {
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
			return fmt.Errorf("server: %s", envelope.Message)
		}
		return errors.New("unexpected response payload")
	}
	return os.WriteFile(dest, body, 0o644)
}
