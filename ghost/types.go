package ghost

import (
	"fmt"
	"slices"
	"time"
)

// Language tag slugs used by the site to partition posts.
const (
	TagSpanish = "hash-es"
	TagEnglish = "hash-en"
)

// Tag is a post tag as returned with include=tags.
type Tag struct {
	ID         string `json:"id,omitempty"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Visibility string `json:"visibility,omitempty"`
}

// Post is a Content API post. Only the requested fields are populated.
type Post struct {
	ID                string     `json:"id,omitempty"`
	Slug              string     `json:"slug"`
	Title             string     `json:"title,omitempty"`
	Excerpt           string     `json:"excerpt,omitempty"`
	CustomExcerpt     string     `json:"custom_excerpt,omitempty"`
	HTML              string     `json:"html,omitempty"`
	PublishedAt       *time.Time `json:"published_at,omitempty"`
	CodeinjectionHead string     `json:"codeinjection_head,omitempty"`
	Tags              []Tag      `json:"tags,omitempty"`
}

// HasTag reports whether the post carries a tag with the given slug.
func (p *Post) HasTag(slug string) bool {
	return slices.ContainsFunc(p.Tags, func(t Tag) bool { return t.Slug == slug })
}

// IsEnglish reports whether the post belongs to the English partition.
// Everything else is treated as Spanish by the hreflang handler.
func (p *Post) IsEnglish() bool {
	return p.HasTag(TagEnglish)
}

// Pagination is the meta.pagination block of list responses.
type Pagination struct {
	Page  int  `json:"page"`
	Limit int  `json:"limit"`
	Pages int  `json:"pages"`
	Total int  `json:"total"`
	Next  *int `json:"next"`
	Prev  *int `json:"prev"`
}

// PostsPage is one page of a posts listing.
type PostsPage struct {
	Posts      []Post
	Pagination Pagination
}

type postsResponse struct {
	Posts *[]Post `json:"posts"`
	Meta  *struct {
		Pagination Pagination `json:"pagination"`
	} `json:"meta"`
}

// validate narrows a decoded listing to the shape the callers rely on.
func (r *postsResponse) validate() error {
	if r.Posts == nil {
		return fmt.Errorf("%w: missing posts array", ErrMalformedResponse)
	}
	for i, p := range *r.Posts {
		if p.Slug == "" {
			return fmt.Errorf("%w: post %d has no slug", ErrMalformedResponse, i)
		}
	}
	return nil
}

// AdminPost is the subset of an Admin API post the injector needs.
// UpdatedAt is the optimistic-concurrency token and must be sent back verbatim.
type AdminPost struct {
	ID                string `json:"id"`
	Slug              string `json:"slug"`
	CodeinjectionHead string `json:"codeinjection_head"`
	UpdatedAt         string `json:"updated_at"`
}

type adminPostsEnvelope struct {
	Posts []AdminPost `json:"posts"`
}

type adminUpdatePost struct {
	CodeinjectionHead string `json:"codeinjection_head"`
	UpdatedAt         string `json:"updated_at"`
}

type adminUpdateEnvelope struct {
	Posts []adminUpdatePost `json:"posts"`
}
