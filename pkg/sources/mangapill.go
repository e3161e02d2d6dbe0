package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/kerbaras/mangamirror/pkg/data"
	"github.com/kerbaras/mangamirror/pkg/utils"
)

const DefaultMangapillURL = "https://mangapill.com"

// Mangapill scrapes the Mangapill catalog. It implements CatalogWalker,
// PageResolver and Searcher.
type Mangapill struct {
	api *utils.API
}

func NewMangapill(client *resty.Client, baseURL string) *Mangapill {
	if baseURL == "" {
		baseURL = DefaultMangapillURL
	}
	return &Mangapill{api: utils.NewAPI(client, strings.TrimRight(baseURL, "/"))}
}

func (m *Mangapill) document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := m.api.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html %s: %v", data.ErrUpstreamFailure, url, err)
	}
	return doc, nil
}

// Discover lists the chapters of a title. The site lists newest first; the
// result is reversed and indexed from 1.
func (m *Mangapill) Discover(ctx context.Context, sourceID int) ([]data.ChapterDescriptor, error) {
	doc, err := m.document(ctx, m.api.URL(fmt.Sprintf("/manga/%d", sourceID)))
	if err != nil {
		return nil, err
	}

	list := doc.Find("#chapters").First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("%w: manga %d: no chapter list", data.ErrUpstreamFailure, sourceID)
	}

	var chapters []data.ChapterDescriptor
	var parseErr error
	list.Find("a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			parseErr = fmt.Errorf("%w: manga %d: chapter link %d has no href", data.ErrUpstreamFailure, sourceID, i)
			return false
		}
		chapters = append(chapters, data.ChapterDescriptor{
			Name: strings.TrimSpace(s.Text()),
			URL:  m.absolute(href),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	for i, j := 0, len(chapters)-1; i < j; i, j = i+1, j-1 {
		chapters[i], chapters[j] = chapters[j], chapters[i]
	}
	for i := range chapters {
		chapters[i].Index = i + 1
	}

	return chapters, nil
}

// ResolvePages lists the page images of a chapter page.
func (m *Mangapill) ResolvePages(ctx context.Context, chapterURL string) ([]string, error) {
	doc, err := m.document(ctx, m.absolute(chapterURL))
	if err != nil {
		return nil, err
	}

	var pages []string
	doc.Find("chapter-page img").Each(func(i int, s *goquery.Selection) {
		src := s.AttrOr("data-src", "")
		if src == "" {
			src = s.AttrOr("src", "")
		}
		if src != "" {
			pages = append(pages, src)
		}
	})

	return pages, nil
}

// Search queries the catalog by title.
func (m *Mangapill) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "manga")
	params.Set("status", "")

	doc, err := m.document(ctx, m.api.URL("/search?"+params.Encode()))
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	seen := make(map[int]bool)
	doc.Find(`a[href^="/manga/"]`).Each(func(i int, s *goquery.Selection) {
		parts := strings.Split(s.AttrOr("href", ""), "/")
		if len(parts) < 3 {
			return
		}
		id, err := strconv.Atoi(parts[2])
		if err != nil || seen[id] {
			return
		}
		name := strings.TrimSpace(s.Find("div").First().Text())
		if name == "" {
			return
		}
		seen[id] = true
		results = append(results, SearchResult{ID: id, Name: name})
	})

	return results, nil
}

func (m *Mangapill) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return m.api.URL(href)
}
