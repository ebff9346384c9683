package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type response struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// NewsAPI fetches top headlines from newsapi.org or a compatible endpoint.
type NewsAPI struct {
	APIKey     string
	Endpoint   string
	Language   string
	PageSize   int
	HTTPClient *http.Client
}

func (n NewsAPI) client() *http.Client {
	if n.HTTPClient != nil {
		return n.HTTPClient
	}
	return http.DefaultClient
}

// TopHeadlines returns the current headline batch.
func (n NewsAPI) TopHeadlines(ctx context.Context) ([]Article, error) {
	params := url.Values{}
	lang := n.Language
	if lang == "" {
		lang = "en"
	}
	params.Add("language", lang)
	size := n.PageSize
	if size <= 0 {
		size = 50
	}
	params.Add("pageSize", strconv.Itoa(size))
	params.Add("apiKey", n.APIKey)

	reqURL := fmt.Sprintf("%s?%s", n.Endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := n.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("newsapi error: %s", resp.Status)
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.Status == "error" {
		return nil, fmt.Errorf("newsapi error: %s %s", resp.Status, result.Message)
	}

	return result.Articles, nil
}
