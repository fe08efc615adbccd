package fetcher

import (
	"context"
	"net/url"
)

// Fetcher retrieves a page and returns its body as text
type Fetcher interface {
	// Fetch issues a GET for pageURL with params appended to its query string
	Fetch(ctx context.Context, pageURL string, params url.Values) (string, error)
}

// BuildURL merges params into the query of pageURL
func BuildURL(pageURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return pageURL, nil
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	query := u.Query()
	for key, values := range params {
		query[key] = values
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
