package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"path"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) ([]Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		ID:    strings.TrimSpace(cmp.Or(item.GUID, item.Link)),
		Title: strings.TrimSpace(item.Title),
		Link:  strings.TrimSpace(item.Link),
	}

	// Atom entries often carry only <updated>
	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = item.UpdatedParsed.UTC()
	}

	normalized.MediaURLs = p.extractMedia(item)

	return normalized
}

func (p *Parser) extractMedia(item *gofeed.Item) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	if item.Image != nil {
		add(item.Image.URL)
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if isMedia(enclosure.Type, enclosure.URL) {
			add(enclosure.URL)
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, name := range []string{"content", "thumbnail"} {
			for _, e := range media[name] {
				add(mediaURL(e))
			}
		}
		for _, group := range media["group"] {
			for _, e := range group.Children["content"] {
				add(mediaURL(e))
			}
		}
	}

	return urls
}

func mediaURL(e ext.Extension) string {
	if medium := e.Attrs["medium"]; medium != "" && medium != "image" && medium != "video" {
		return ""
	}
	if t := e.Attrs["type"]; t != "" && !isMedia(t, "") {
		return ""
	}
	return e.Attrs["url"]
}

func isMedia(mimeType, rawURL string) bool {
	mimeType = strings.ToLower(mimeType)
	if strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "video/") {
		return true
	}
	if mimeType != "" {
		return false
	}

	switch strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0])) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".mp4", ".mov", ".webm":
		return true
	}
	return false
}
