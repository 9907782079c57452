// Package news builds descriptors for the Spaceflight News API.
package news

import (
	"net/url"
	"strconv"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// MaxLimit caps the number of articles a caller may ask for.
const MaxLimit = 50

// Articles describes /articles/ with the given page size. A limit outside
// 1..MaxLimit uses domain.DefaultArticleLimit.
func Articles(limit int) fetch.Descriptor[[]domain.Article] {
	if limit < 1 || limit > MaxLimit {
		limit = domain.DefaultArticleLimit
	}
	return fetch.Descriptor[[]domain.Article]{
		Source: "news",
		Request: func() (upstream.Request, error) {
			return upstream.Request{
				Path:  "/articles/",
				Query: url.Values{"limit": {strconv.Itoa(limit)}},
			}, nil
		},
		Normalize: domain.NormalizeArticles,
	}
}
