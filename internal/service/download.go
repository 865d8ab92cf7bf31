package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chitralai/chitralai/internal/domain"
)

// ObjectReader fetches stored photos.
type ObjectReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	KeyFromURL(ref string) (string, bool)
}

// PhotoDownloader copies matched photos from the bucket to a local
// directory.
type PhotoDownloader struct {
	objects     ObjectReader
	concurrency int
	logger      *slog.Logger
}

func NewPhotoDownloader(objects ObjectReader, concurrency int, logger *slog.Logger) *PhotoDownloader {
	if concurrency < 1 {
		concurrency = 10
	}
	return &PhotoDownloader{
		objects:     objects,
		concurrency: concurrency,
		logger:      logger.With("component", "photo_downloader"),
	}
}

// Download saves every photo into dir under the last element of its key,
// overwriting files of the same name. A photo that cannot be fetched or
// written is reported and skipped. progress, when set, is called after
// each photo.
func (d *PhotoDownloader) Download(ctx context.Context, photoURLs []string, dir string, progress func(done, total int)) (*domain.DownloadReport, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	saved := make([]string, len(photoURLs))
	reasons := make([]string, len(photoURLs))

	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for i, url := range photoURLs {
		g.Go(func() error {
			defer func() {
				if progress == nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				done++
				progress(done, len(photoURLs))
			}()

			file, err := d.save(ctx, url, dir)
			if err != nil {
				d.logger.WarnContext(ctx, "download failed",
					slog.String("url", url),
					slog.String("error", err.Error()),
				)
				reasons[i] = err.Error()
				return nil
			}
			saved[i] = file
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &domain.DownloadReport{Dir: dir, Saved: []string{}, Failed: []domain.DownloadFailure{}}
	for i, url := range photoURLs {
		if saved[i] != "" {
			report.Saved = append(report.Saved, saved[i])
			continue
		}
		report.Failed = append(report.Failed, domain.DownloadFailure{URL: url, Reason: reasons[i]})
	}
	return report, nil
}

func (d *PhotoDownloader) save(ctx context.Context, url, dir string) (string, error) {
	key, ok := d.objects.KeyFromURL(url)
	if !ok {
		return "", errors.New("not a photo in this bucket")
	}
	name := path.Base(key)
	if name == "." || name == "/" {
		return "", fmt.Errorf("no file name in %s", key)
	}

	body, err := d.objects.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer body.Close()

	target := filepath.Join(dir, name)
	out, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}
