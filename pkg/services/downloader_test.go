package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/kerbaras/mangamirror/pkg/data"
	"github.com/kerbaras/mangamirror/pkg/sources"
	"github.com/kerbaras/mangamirror/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing

type mockWalker struct {
	discoverFunc func(sourceID int) ([]data.ChapterDescriptor, error)
	calls        []int
}

func (m *mockWalker) Discover(ctx context.Context, sourceID int) ([]data.ChapterDescriptor, error) {
	m.calls = append(m.calls, sourceID)
	if m.discoverFunc != nil {
		return m.discoverFunc(sourceID)
	}
	return nil, nil
}

type mockResolver struct {
	resolveFunc func(chapterURL string) ([]string, error)
	mu          sync.Mutex
	calls       []string
}

func (m *mockResolver) ResolvePages(ctx context.Context, chapterURL string) ([]string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, chapterURL)
	m.mu.Unlock()
	if m.resolveFunc != nil {
		return m.resolveFunc(chapterURL)
	}
	return nil, nil
}

type mockLookup struct {
	lookupFunc func(malID int) (*sources.Metadata, error)
	calls      int
}

func (m *mockLookup) Lookup(ctx context.Context, malID int) (*sources.Metadata, error) {
	m.calls++
	if m.lookupFunc != nil {
		return m.lookupFunc(malID)
	}
	return &sources.Metadata{MalID: malID, Title: sources.Titles{Romaji: fmt.Sprintf("Title %d", malID)}}, nil
}

type mockLibrary struct {
	mu       sync.Mutex
	titles   map[int]data.Title
	chapters map[int][]data.ChapterRecord
}

func newMockLibrary() *mockLibrary {
	return &mockLibrary{titles: map[int]data.Title{}, chapters: map[int][]data.ChapterRecord{}}
}

func (m *mockLibrary) SaveTitle(title *data.Title) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles[title.MalID] = *title
	return nil
}

func (m *mockLibrary) ReplaceChapters(malID int, records []data.ChapterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chapters[malID] = append([]data.ChapterRecord(nil), records...)
	return nil
}

// imageServer serves /<chapter>/<page>.<ext> with a body naming the page.
// Paths under /fail/ return 500 and paths ending in .bin have an unknown
// media type.
type imageServer struct {
	*httptest.Server
	requests atomic.Int64
	mu       sync.Mutex
	referers []string
}

func newImageServer(t *testing.T) *imageServer {
	t.Helper()
	s := &imageServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mu.Lock()
		s.referers = append(s.referers, r.Header.Get("Referer"))
		s.mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/fail/"):
			w.WriteHeader(http.StatusInternalServerError)
			return
		case strings.HasSuffix(r.URL.Path, ".png"):
			w.Header().Set("Content-Type", "image/png")
		case strings.HasSuffix(r.URL.Path, ".bin"):
			w.Header().Set("Content-Type", "application/octet-stream")
		default:
			w.Header().Set("Content-Type", "image/jpeg")
		}
		fmt.Fprintf(w, "image %s", r.URL.Path)
	}))
	t.Cleanup(s.Close)
	return s
}

func testClient() *resty.Client {
	return utils.NewClient(utils.ClientOptions{})
}

func TestMediaExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"image/jpeg", "jpeg", false},
		{"image/png", "png", false},
		{"image/webp", "webp", false},
		{"image/gif", "gif", false},
		{"image/jpeg; charset=binary", "jpeg", false},
		{"IMAGE/PNG", "png", false},
		{"application/octet-stream", "", true},
		{"text/html; charset=utf-8", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, err := MediaExtension(tt.contentType)
			if tt.wantErr {
				assert.ErrorIs(t, err, data.ErrUnsupportedMediaType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDownloaderWritesPagesWithExtension(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()

	jobs := []data.PageJob{
		{Referer: "https://catalog.test/ch/1", URL: server.URL + "/1/0.jpg", Dest: filepath.Join(dir, "0"), Chapter: 1, Page: 0},
		{Referer: "https://catalog.test/ch/1", URL: server.URL + "/1/1.png", Dest: filepath.Join(dir, "1"), Chapter: 1, Page: 1},
	}

	d := NewDownloader(1, testClient, zerolog.Nop(), nil)
	require.NoError(t, d.Run(context.Background(), jobs))

	content, err := os.ReadFile(filepath.Join(dir, "0.jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "image /1/0.jpg", string(content))

	content, err = os.ReadFile(filepath.Join(dir, "1.png"))
	require.NoError(t, err)
	assert.Equal(t, "image /1/1.png", string(content))
}

func TestDownloaderSendsReferer(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()

	jobs := []data.PageJob{
		{Referer: "https://catalog.test/chapters/7", URL: server.URL + "/7/0.jpg", Dest: filepath.Join(dir, "0")},
	}

	d := NewDownloader(1, testClient, zerolog.Nop(), nil)
	require.NoError(t, d.Run(context.Background(), jobs))
	assert.Equal(t, []string{"https://catalog.test/chapters/7"}, server.referers)
}

func TestDownloaderBadStatusAborts(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()

	jobs := []data.PageJob{
		{URL: server.URL + "/fail/0.jpg", Dest: filepath.Join(dir, "0")},
		{URL: server.URL + "/1/1.jpg", Dest: filepath.Join(dir, "1")},
		{URL: server.URL + "/1/2.jpg", Dest: filepath.Join(dir, "2")},
	}

	d := NewDownloader(1, testClient, zerolog.Nop(), nil)
	err := d.Run(context.Background(), jobs)
	assert.ErrorIs(t, err, data.ErrUpstreamFailure)

	// the only worker stops at the failing job
	assert.EqualValues(t, 1, server.requests.Load())
	_, statErr := os.Stat(filepath.Join(dir, "1.jpeg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloaderUnknownMediaTypeAborts(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()

	jobs := []data.PageJob{
		{URL: server.URL + "/1/0.bin", Dest: filepath.Join(dir, "0")},
	}

	d := NewDownloader(1, testClient, zerolog.Nop(), nil)
	err := d.Run(context.Background(), jobs)
	assert.ErrorIs(t, err, data.ErrUnsupportedMediaType)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloaderManyWorkersKeepDestinations(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()

	var jobs []data.PageJob
	for page := 0; page < 24; page++ {
		jobs = append(jobs, data.PageJob{
			URL:  fmt.Sprintf("%s/1/%d.jpg", server.URL, page),
			Dest: filepath.Join(dir, fmt.Sprint(page)),
			Page: page,
		})
	}

	var clients atomic.Int64
	newClient := func() *resty.Client {
		clients.Add(1)
		return testClient()
	}

	d := NewDownloader(4, newClient, zerolog.Nop(), nil)
	require.NoError(t, d.Run(context.Background(), jobs))

	assert.EqualValues(t, 4, clients.Load())
	for page := 0; page < 24; page++ {
		content, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.jpeg", page)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("image /1/%d.jpg", page), string(content))
	}
}

func TestDownloaderNoJobs(t *testing.T) {
	called := false
	d := NewDownloader(2, func() *resty.Client {
		called = true
		return testClient()
	}, zerolog.Nop(), nil)

	require.NoError(t, d.Run(context.Background(), nil))
	assert.False(t, called)
}

func TestDownloaderCancelledContext(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []data.PageJob{{URL: server.URL + "/1/0.jpg", Dest: filepath.Join(dir, "0")}}
	d := NewDownloader(1, testClient, zerolog.Nop(), nil)

	assert.ErrorIs(t, d.Run(ctx, jobs), context.Canceled)
	assert.EqualValues(t, 0, server.requests.Load())
}

func TestDownloaderReportsProgress(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()

	var jobs []data.PageJob
	for page := 0; page < 5; page++ {
		jobs = append(jobs, data.PageJob{
			URL:  fmt.Sprintf("%s/1/%d.jpg", server.URL, page),
			Dest: filepath.Join(dir, fmt.Sprint(page)),
			Page: page,
		})
	}

	progress := NewProgress(16)
	d := NewDownloader(2, testClient, zerolog.Nop(), progress)
	require.NoError(t, d.Run(context.Background(), jobs))
	progress.Close()

	maxCompleted := 0
	for ev := range progress.Events() {
		assert.Equal(t, StatusDownloading, ev.Status)
		assert.Equal(t, 5, ev.Total)
		if ev.Completed > maxCompleted {
			maxCompleted = ev.Completed
		}
	}
	assert.Equal(t, 5, maxCompleted)
}
