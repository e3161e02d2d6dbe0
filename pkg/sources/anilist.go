package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kerbaras/mangamirror/pkg/data"
)

const DefaultAniListURL = "https://graphql.anilist.co"

const aniListQuery = `query ($malId: Int) {
  Media(idMal: $malId, type: MANGA) {
    id
    idMal
    title { romaji english native }
    description(asHtml: false)
    status
    chapters
    volumes
    genres
    startDate { year month day }
    endDate { year month day }
    coverImage { extraLarge large medium color }
    bannerImage
  }
}`

// Metadata is the descriptive document stored as metadata.json.
type Metadata struct {
	AniListID   int       `json:"id"`
	MalID       int       `json:"mal_id"`
	Title       Titles    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Chapters    *int      `json:"chapters"`
	Volumes     *int      `json:"volumes"`
	Genres      []string  `json:"genres"`
	StartDate   FuzzyDate `json:"start_date"`
	EndDate     FuzzyDate `json:"end_date"`
	CoverImage  string    `json:"cover_image"`
	CoverColor  string    `json:"cover_color,omitempty"`
	BannerImage string    `json:"banner_image,omitempty"`
}

type Titles struct {
	Romaji  string `json:"romaji"`
	English string `json:"english,omitempty"`
	Native  string `json:"native,omitempty"`
}

// Preferred is the English title when there is one, romaji otherwise.
func (t Titles) Preferred() string {
	if t.English != "" {
		return t.English
	}
	return t.Romaji
}

type FuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

type aniListMedia struct {
	ID          int       `json:"id"`
	IDMal       int       `json:"idMal"`
	Title       Titles    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Chapters    *int      `json:"chapters"`
	Volumes     *int      `json:"volumes"`
	Genres      []string  `json:"genres"`
	StartDate   FuzzyDate `json:"startDate"`
	EndDate     FuzzyDate `json:"endDate"`
	CoverImage  struct {
		ExtraLarge string `json:"extraLarge"`
		Large      string `json:"large"`
		Medium     string `json:"medium"`
		Color      string `json:"color"`
	} `json:"coverImage"`
	BannerImage string `json:"bannerImage"`
}

type aniListResponse struct {
	Data struct {
		Media *aniListMedia `json:"Media"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// AniList resolves MyAnimeList ids through the AniList GraphQL API.
type AniList struct {
	client  *resty.Client
	baseURL string
}

func NewAniList(client *resty.Client, baseURL string) *AniList {
	if baseURL == "" {
		baseURL = DefaultAniListURL
	}
	return &AniList{client: client, baseURL: baseURL}
}

func (a *AniList) Lookup(ctx context.Context, malID int) (*Metadata, error) {
	payload := map[string]any{
		"query":     aniListQuery,
		"variables": map[string]any{"malId": malID},
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(payload).
		Post(a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: anilist mal %d: %v", data.ErrUpstreamFailure, malID, err)
	}

	var out aniListResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: anilist mal %d: decode: %v (status %s)", data.ErrUpstreamFailure, malID, err, resp.Status())
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("%w: anilist mal %d: %s", data.ErrUpstreamFailure, malID, strings.Join(msgs, "; "))
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: anilist mal %d: %s", data.ErrUpstreamFailure, malID, resp.Status())
	}
	if out.Data.Media == nil {
		return nil, fmt.Errorf("%w: anilist mal %d: not found", data.ErrUpstreamFailure, malID)
	}

	return out.Data.Media.toMetadata(), nil
}

func (m *aniListMedia) toMetadata() *Metadata {
	cover := m.CoverImage.ExtraLarge
	if cover == "" {
		cover = m.CoverImage.Large
	}
	if cover == "" {
		cover = m.CoverImage.Medium
	}
	return &Metadata{
		AniListID:   m.ID,
		MalID:       m.IDMal,
		Title:       m.Title,
		Description: m.Description,
		Status:      m.Status,
		Chapters:    m.Chapters,
		Volumes:     m.Volumes,
		Genres:      m.Genres,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		CoverImage:  cover,
		CoverColor:  m.CoverImage.Color,
		BannerImage: m.BannerImage,
	}
}
