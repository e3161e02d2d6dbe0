package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kerbaras/mangamirror/pkg/data"
	"github.com/kerbaras/mangamirror/pkg/mirror"
	"github.com/kerbaras/mangamirror/pkg/sources"
	"github.com/rs/zerolog"
)

// JobCompiler turns missing chapters into page jobs.
type JobCompiler struct {
	resolver sources.PageResolver
	delay    time.Duration
	logger   zerolog.Logger
	progress *Progress
}

func NewJobCompiler(resolver sources.PageResolver, delay time.Duration, logger zerolog.Logger, progress *Progress) *JobCompiler {
	return &JobCompiler{resolver: resolver, delay: delay, logger: logger, progress: progress}
}

// Compile creates the directory of every missing chapter, resolves its
// pages and returns one job per page. Chapters are visited in ascending
// order and jobs keep the resolved page order. Resolved pages are cached on
// the descriptor so a repeated call does not hit the resolver again.
func (c *JobCompiler) Compile(ctx context.Context, paths mirror.Paths, remote []data.ChapterDescriptor, missing []int) ([]data.PageJob, error) {
	byIndex := make(map[int]*data.ChapterDescriptor, len(remote))
	for i := range remote {
		byIndex[remote[i].Index] = &remote[i]
	}

	var jobs []data.PageJob
	resolved := 0
	for _, index := range missing {
		chapter, ok := byIndex[index]
		if !ok {
			return nil, fmt.Errorf("chapter %d is missing but not in the catalog", index)
		}

		dir := paths.ChapterDir(index)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", data.ErrLocalIO, dir, err)
		}
		if err := os.WriteFile(paths.NameFile(index), []byte(chapter.Name), 0644); err != nil {
			return nil, fmt.Errorf("%w: write chapter name: %v", data.ErrLocalIO, err)
		}

		if chapter.Pages == nil {
			if resolved > 0 {
				if err := c.pause(ctx); err != nil {
					return nil, err
				}
			}
			c.progress.send(DownloadProgress{Chapter: index, Status: StatusResolving})

			pages, err := c.resolver.ResolvePages(ctx, chapter.URL)
			if err != nil {
				return nil, fmt.Errorf("chapter %d: %w", index, err)
			}
			resolved++
			if pages == nil {
				pages = []string{}
			}
			chapter.Pages = pages
			c.logger.Debug().Int("chapter", index).Int("pages", len(pages)).Msg("resolved chapter")
		}

		for page, url := range chapter.Pages {
			jobs = append(jobs, data.PageJob{
				Referer: chapter.URL,
				URL:     url,
				Dest:    paths.PagePath(index, page),
				Chapter: index,
				Page:    page,
			})
		}
	}

	c.progress.send(DownloadProgress{Total: len(jobs), Status: StatusQueued})
	return jobs, nil
}

func (c *JobCompiler) pause(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
