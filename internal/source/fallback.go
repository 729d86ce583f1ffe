package source

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Permissive feed scanner used when the standards-aware parse yields
// nothing. It works on lower-cased tag names with plain pattern matching,
// so malformed entities, stray namespaces or truncated documents that break
// an XML parser still give up their items. Handles Atom entries and
// RSS 2.0 / RSS 1.0 items.

type parsedItem struct {
	title    string
	link     string
	pubDate  string
	content  string
	imageURL string
	category string
}

var (
	entryBlockPattern = regexp.MustCompile(`(?is)<entry(?:\s[^>]*)?>(.*?)</entry>`)
	itemBlockPattern  = regexp.MustCompile(`(?is)<(?:rdf:)?item(?:\s[^>]*)?>(.*?)</(?:rdf:)?item>`)
	linkTagPattern    = regexp.MustCompile(`(?is)<link(?:\s[^>]*)?/?>`)
	cdataPattern      = regexp.MustCompile(`(?is)<!\[CDATA\[(.*?)\]\]>`)
)

func parseFeedFallback(raw []byte) []parsedItem {
	body := string(raw)

	if blocks := entryBlockPattern.FindAllStringSubmatch(body, -1); len(blocks) > 0 {
		return parseAtomEntries(blocks)
	}

	var items []parsedItem
	for _, m := range itemBlockPattern.FindAllStringSubmatch(body, -1) {
		block := m[1]

		title := tagText(block, "title")
		link := tagText(block, "link")
		if link == "" {
			link = tagText(block, "guid")
		}
		if title == "" || link == "" {
			continue
		}

		pubDate := firstNonEmpty(
			tagText(block, "pubdate"),
			tagText(block, "dc:date"),
			tagText(block, "date"),
		)
		description := tagText(block, "description")
		content := tagText(block, "content:encoded")
		if content == "" {
			content = tagText(block, "encoded")
		}
		if content == "" {
			content = description
		}

		image := firstNonEmpty(
			tagAttr(block, "media:content", "url"),
			tagAttr(block, "media:thumbnail", "url"),
			tagAttr(block, "enclosure", "url"),
		)
		if image == "" {
			if m := imgTagPattern.FindStringSubmatch(content); m != nil {
				image = m[1]
			}
		}

		items = append(items, parsedItem{
			title:    title,
			link:     link,
			pubDate:  pubDate,
			content:  content,
			imageURL: image,
			category: tagText(block, "category"),
		})
	}
	return items
}

func parseAtomEntries(blocks [][]string) []parsedItem {
	var items []parsedItem
	for _, m := range blocks {
		block := m[1]

		title := tagText(block, "title")
		link := atomLink(block)
		if title == "" || link == "" {
			continue
		}

		pubDate := tagText(block, "published")
		if pubDate == "" {
			pubDate = tagText(block, "updated")
		}
		summary := tagText(block, "summary")
		content := tagText(block, "content")
		if content == "" {
			content = summary
		}

		image := firstNonEmpty(
			tagAttr(block, "media:thumbnail", "url"),
			tagAttr(block, "media:content", "url"),
		)
		if image == "" {
			if m := imgTagPattern.FindStringSubmatch(content); m != nil {
				image = m[1]
			}
		}

		items = append(items, parsedItem{
			title:    title,
			link:     link,
			pubDate:  pubDate,
			content:  content,
			imageURL: image,
		})
	}
	return items
}

// atomLink prefers rel="alternate", then any link carrying an href.
func atomLink(block string) string {
	tags := linkTagPattern.FindAllString(block, -1)
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), `rel="alternate"`) || strings.Contains(strings.ToLower(tag), `rel='alternate'`) {
			if href := attrValue(tag, "href"); href != "" {
				return href
			}
		}
	}
	for _, tag := range tags {
		if href := attrValue(tag, "href"); href != "" {
			return href
		}
	}
	return ""
}

// tagText extracts the trimmed, entity-decoded text of the first matching
// element. Tag names are matched case-insensitively.
func tagText(block, tag string) string {
	pattern, err := regexp.Compile(fmt.Sprintf(`(?is)<%s(?:\s[^>]*)?>(.*?)</%s>`, regexp.QuoteMeta(tag), regexp.QuoteMeta(tag)))
	if err != nil {
		return ""
	}
	m := pattern.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	text := m[1]
	if c := cdataPattern.FindStringSubmatch(text); c != nil {
		text = c[1]
	}
	return strings.TrimSpace(html.UnescapeString(text))
}

// tagAttr extracts an attribute of the first matching element.
func tagAttr(block, tag, attr string) string {
	pattern, err := regexp.Compile(fmt.Sprintf(`(?is)<%s\s[^>]*>`, regexp.QuoteMeta(tag)))
	if err != nil {
		return ""
	}
	m := pattern.FindString(block)
	if m == "" {
		return ""
	}
	return attrValue(m, attr)
}

func attrValue(tag, attr string) string {
	pattern, err := regexp.Compile(fmt.Sprintf(`(?i)%s\s*=\s*["']([^"']+)["']`, regexp.QuoteMeta(attr)))
	if err != nil {
		return ""
	}
	if m := pattern.FindStringSubmatch(tag); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
