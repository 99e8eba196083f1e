package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// HTMLParser converts HTML pages to markdown text, keeping only the main content.
type HTMLParser struct {
	converter *md.Converter
}

// NewHTMLParser creates a new HTML parser.
func NewHTMLParser() *HTMLParser {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &HTMLParser{converter: converter}
}

// Parse extracts the main content area and converts it to markdown.
// Article-like pages go through readability extraction; short pages fall back
// to the first main/article element or the cleaned body.
// The page title, when present, becomes a top-level heading.
func (p *HTMLParser) Parse(filename string, content []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var title, fragment string
	if readability.CheckDocument(root) {
		title, fragment = readableContent(filename, content)
	}
	if fragment == "" {
		title = htmlTitle(root)
		fragment = mainContent(root)
	}

	markdown, err := p.converter.ConvertString(fragment)
	if err != nil {
		return nil, fmt.Errorf("convert HTML: %w", err)
	}

	markdown = cleanMarkdown(markdown)
	if title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}

	return &Document{
		Filename: filepath.Base(filename),
		MimeType: p.MimeType(),
		Body:     markdown,
	}, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *HTMLParser) CanParse(mimeType string) bool {
	switch mimeType {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// MimeType returns the primary MIME type for this parser.
func (p *HTMLParser) MimeType() string {
	return "text/html"
}

// readableContent runs readability extraction. It returns an empty fragment
// when extraction fails.
func readableContent(filename string, content []byte) (title, fragment string) {
	pageURL := &url.URL{Scheme: "file", Path: "/" + filepath.ToSlash(filename)}
	article, err := readability.FromReader(bytes.NewReader(content), pageURL)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(article.Title), article.Content
}

// htmlTitle returns the text of the first <title> element.
func htmlTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil && t.FirstChild != nil {
		return strings.TrimSpace(t.FirstChild.Data)
	}
	return ""
}

// mainContent renders the first main/article element, or the cleaned body.
func mainContent(doc *html.Node) string {
	removeElements(doc, []string{"script", "style", "noscript", "iframe", "object", "embed"})

	for _, selector := range []string{"main", "article", "[role=main]"} {
		if node := findElement(doc, selector); node != nil {
			return renderNode(node)
		}
	}

	removeElements(doc, []string{"nav", "header", "footer", "aside", "form"})

	if body := findElement(doc, "body"); body != nil {
		return renderNode(body)
	}
	return renderNode(doc)
}

// findElement finds the first element matching a tag or [attr=value] selector.
func findElement(n *html.Node, selector string) *html.Node {
	if n.Type == html.ElementNode && matchesSelector(n, selector) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, selector); found != nil {
			return found
		}
	}
	return nil
}

func matchesSelector(n *html.Node, selector string) bool {
	if strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]") {
		key, val, ok := strings.Cut(strings.Trim(selector, "[]"), "=")
		if !ok {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == key && a.Val == val {
				return true
			}
		}
		return false
	}
	return n.Data == selector
}

// removeElements detaches every element with one of the given tag names.
func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[tag] = true
	}

	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && tagSet[node.Data] {
			toRemove = append(toRemove, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func renderNode(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}

// cleanMarkdown collapses runs of blank lines and trailing spaces.
func cleanMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
