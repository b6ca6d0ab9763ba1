package artifact

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

// Pre-compiled regexes to avoid ReDoS with runtime compilation
var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
)

// Converter converts HTML artifacts (exported wiki pages and similar) to
// markdown so they can be sectioned and extracted like native markdown.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates a new HTML to markdown converter.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Converter{converter: converter}
}

// Convert transforms HTML content to markdown, returning the markdown body
// and the document title if one was found.
func (c *Converter) Convert(htmlContent []byte) (markdown, title string, err error) {
	title = extractHTMLTitle(htmlContent)

	cleaned := string(htmlContent)
	cleaned = scriptRe.ReplaceAllString(cleaned, "")
	cleaned = styleRe.ReplaceAllString(cleaned, "")

	markdown, err = c.converter.ConvertString(cleaned)
	if err != nil {
		return "", "", err
	}

	markdown = excessiveLinesRe.ReplaceAllString(markdown, "\n\n\n")
	markdown = strings.TrimSpace(markdown) + "\n"

	return markdown, title, nil
}

// extractHTMLTitle pulls the <title> text from an HTML document.
func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title
}
