package dataset

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boundary-lookup/internal/resilience"
)

// IsRemote reports whether p is an http(s) URL.
func IsRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// Fetch downloads a remote dataset into destDir and returns the local path
// of the dataset file. ZIP archives are extracted and the first shapefile or
// GeoJSON file inside is returned. An already downloaded file is reused.
func Fetch(ctx context.Context, client *http.Client, rawURL, destDir string) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	log := zap.L().With(
		zap.String("component", "dataset.fetch"),
		zap.String("url", rawURL),
	)

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "dataset: parse url")
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", eris.Errorf("dataset: no file name in %s", rawURL)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create dest dir")
	}
	local := filepath.Join(destDir, name)

	if info, err := os.Stat(local); err == nil && info.Size() > 0 {
		log.Debug("dataset already downloaded", zap.String("path", local))
	} else {
		log.Info("downloading dataset")
		retry := resilience.DefaultBackoff()
		retry.OnRetry = resilience.LogRetry("dataset.download")
		err := resilience.Do(ctx, retry, func(ctx context.Context) error {
			return downloadFile(ctx, client, rawURL, local)
		})
		if err != nil {
			return "", eris.Wrap(err, "dataset: download")
		}
	}

	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		return local, nil
	}

	extractDir := filepath.Join(destDir, strings.TrimSuffix(name, filepath.Ext(name)))
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create extract dir")
	}
	if err := extractZIP(local, extractDir); err != nil {
		return "", eris.Wrap(err, "dataset: extract zip")
	}

	for _, ext := range []string{".shp", ".geojson", ".json"} {
		if p, err := findFileByExt(extractDir, ext); err == nil {
			return p, nil
		}
	}
	return "", eris.Errorf("dataset: no shapefile or geojson in %s", name)
}

// downloadFile downloads a URL to dest. The body is written to dest+".part"
// and renamed into place only when complete, so dest never holds a
// truncated download.
func downloadFile(ctx context.Context, client *http.Client, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return &resilience.StatusError{StatusCode: resp.StatusCode}
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return eris.Wrap(err, "create file")
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(part)
		return eris.Wrap(err, "write file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(part)
		return eris.Wrap(err, "close file")
	}
	return eris.Wrap(os.Rename(part, dest), "rename download")
}

// extractZIP extracts the files of a ZIP archive into destDir, flattening
// directories.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
