// Package feed turns hub delivery bodies (Atom or RSS) into posts.
package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pscheid92/buzzbot/internal/domain"
)

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// Parse returns an error only when body is not a feed at all. Entries
// without a link are reported in ParseResult.Errors.
func (p *Parser) Parse(body []byte, defaults domain.FeedDefaults) (*domain.ParseResult, error) {
	parsed, err := p.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	feedURL := parsed.FeedLink
	if feedURL == "" {
		feedURL = defaults.TopicURL
	}

	result := &domain.ParseResult{Posts: make([]domain.Post, 0, len(parsed.Items))}
	for i, item := range parsed.Items {
		if strings.TrimSpace(item.Link) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: missing link", i+1))
			continue
		}
		result.Posts = append(result.Posts, toPost(item, feedURL))
	}
	return result, nil
}

func toPost(item *gofeed.Item, feedURL string) domain.Post {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = item.Link
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	return domain.Post{
		URL:         item.Link,
		FeedURL:     feedURL,
		Title:       title,
		Content:     content,
		PublishedAt: publishedAt(item),
		Author:      author(item),
	}
}

func publishedAt(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}

func author(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}
