package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"github.com/kerbaras/mangamirror/pkg/data"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var mediaExtensions = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// MediaExtension maps a Content-Type header to a file extension.
func MediaExtension(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", data.ErrUnsupportedMediaType, contentType)
	}
	ext, ok := mediaExtensions[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %q", data.ErrUnsupportedMediaType, mediaType)
	}
	return ext, nil
}

// Downloader drains page jobs with a fixed pool of workers.
type Downloader struct {
	workers   int
	newClient func() *resty.Client
	logger    zerolog.Logger
	progress  *Progress
}

// NewDownloader creates a pool of workers. newClient is called once per
// worker; every worker owns its client.
func NewDownloader(workers int, newClient func() *resty.Client, logger zerolog.Logger, progress *Progress) *Downloader {
	if workers < 1 {
		workers = 1
	}
	return &Downloader{workers: workers, newClient: newClient, logger: logger, progress: progress}
}

// Run downloads every job and returns after all workers have stopped. The
// queue is filled before any worker starts. Cancellation, including the
// first failing job, is only observed between jobs: other workers finish
// the page in hand and claim no more.
func (d *Downloader) Run(ctx context.Context, jobs []data.PageJob) error {
	if len(jobs) == 0 {
		return nil
	}

	queue := make(chan data.PageJob, len(jobs))
	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	var completed atomic.Int64
	total := len(jobs)

	g, gctx := errgroup.WithContext(ctx)
	jobCtx := context.WithoutCancel(ctx)
	for w := 0; w < d.workers; w++ {
		client := d.newClient()
		g.Go(func() error {
			for job := range queue {
				if err := gctx.Err(); err != nil {
					return err
				}
				d.logger.Debug().Int("worker", w).Str("url", job.URL).Msg("worker working on url")

				if err := d.fetch(jobCtx, client, job); err != nil {
					d.progress.send(DownloadProgress{Chapter: job.Chapter, Page: job.Page, Status: StatusError, Error: err})
					return err
				}

				d.progress.send(DownloadProgress{
					Chapter:   job.Chapter,
					Page:      job.Page,
					Completed: int(completed.Add(1)),
					Total:     total,
					Status:    StatusDownloading,
				})
			}
			return nil
		})
	}

	return g.Wait()
}

func (d *Downloader) fetch(ctx context.Context, client *resty.Client, job data.PageJob) error {
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Referer", job.Referer).
		SetDoNotParseResponse(true).
		Get(job.URL)
	if err != nil {
		return fmt.Errorf("%w: chapter %d page %d: %v", data.ErrUpstreamFailure, job.Chapter, job.Page, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return fmt.Errorf("%w: chapter %d page %d: %s", data.ErrUpstreamFailure, job.Chapter, job.Page, resp.Status())
	}

	ext, err := MediaExtension(resp.Header().Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("chapter %d page %d: %w", job.Chapter, job.Page, err)
	}

	dest := job.Dest + "." + ext
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", data.ErrLocalIO, dest, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("%w: write %s: %v", data.ErrLocalIO, dest, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("%w: close %s: %v", data.ErrLocalIO, dest, err)
	}
	return nil
}
