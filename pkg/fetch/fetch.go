// pkg/fetch/fetch.go
package fetch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"transport-climate-etl/pkg/model"
)

// Dataset describes one downloadable Eurostat dataset.
type Dataset struct {
	Kind model.SourceKind
	Name string
	URL  string
	File string
}

// Datasets lists the three Eurostat dissemination-API endpoints, each
// serving a gzip-compressed SDMX-CSV export.
var Datasets = []Dataset{
	{
		Kind: model.SourceBusesTrains,
		Name: "Share of buses and trains in inland passenger transport",
		URL:  "https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1/data/sdg_09_50?format=SDMX-CSV&compressed=true",
		File: "buses_trains_passenger_transport.csv",
	},
	{
		Kind: model.SourceGreenhouseGas,
		Name: "Domestic net greenhouse gas emissions",
		URL:  "https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1/data/sdg_13_10?format=SDMX-CSV&compressed=true",
		File: "greenhouse_gas_emissions.csv",
	},
	{
		Kind: model.SourceRoadEmissions,
		Name: "Air emissions accounts related to road transport",
		URL:  "https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1/data/env_ac_aibrid_rd?format=SDMX-CSV&compressed=true",
		File: "road_transport_air_emissions.csv",
	},
}

// Fetcher downloads and decompresses the raw input datasets. It is a
// collaborator of the pipeline core, which itself never touches the
// network.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher creates a Fetcher. A nil client gets a default with a
// generous timeout; the Eurostat exports are tens of megabytes.
func NewFetcher(client *http.Client, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Fetcher{client: client, logger: logger.Named("fetch")}
}

// MissingFiles returns the dataset files not yet present in dir.
func MissingFiles(dir string) []string {
	var missing []string
	for _, ds := range Datasets {
		if _, err := os.Stat(filepath.Join(dir, ds.File)); err != nil {
			missing = append(missing, ds.File)
		}
	}
	return missing
}

// EnsureDatasets downloads every dataset whose file is not yet present in
// dir. With force set, all datasets are re-downloaded.
func (f *Fetcher) EnsureDatasets(ctx context.Context, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create input directory: %w", err)
	}

	for _, ds := range Datasets {
		path := filepath.Join(dir, ds.File)
		if !force {
			if _, err := os.Stat(path); err == nil {
				f.logger.Info("Dataset already present, skipping download",
					zap.String("file", ds.File))
				continue
			}
		}

		f.logger.Info("Downloading dataset",
			zap.String("name", ds.Name),
			zap.String("file", ds.File))
		if err := f.download(ctx, ds.URL, path); err != nil {
			return fmt.Errorf("failed to download %s: %w", ds.File, err)
		}
	}

	return nil
}

// download fetches one compressed dataset and writes the decompressed CSV
// to path, going through a temp file so a partial download never
// masquerades as a complete input.
func (f *Fetcher) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("response is not gzip-compressed: %w", err)
	}
	defer gz.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, gz); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}
	return nil
}
