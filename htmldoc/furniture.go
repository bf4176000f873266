package htmldoc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// furnitureKind is the page-furniture role the classifier assigns a node.
type furnitureKind int

const (
	furnitureContent furnitureKind = iota
	furnitureHeader
	furnitureFooter
	furnitureSkip
)

// furniturePatterns match class/id values of boilerplate regions.
var furniturePatterns = struct {
	header  *regexp.Regexp
	footer  *regexp.Regexp
	sidebar *regexp.Regexp
}{
	header:  regexp.MustCompile(`(?i)(^|[^a-z])(nav|navbar|navigation|menu|topnav|breadcrumbs?|site-header|page-header|masthead|banner)([^a-z]|$)`),
	footer:  regexp.MustCompile(`(?i)(^|[^a-z])(footer|site-footer|page-footer|colophon)([^a-z]|$)`),
	sidebar: regexp.MustCompile(`(?i)(^|[^a-z])(sidebar|sidenav|widget-area|widget|aside)([^a-z]|$)`),
}

// furnitureClassifier decides which elements are page furniture. Headers
// and footers become PageHeader/PageFooter detections; sidebars are
// dropped.
type furnitureClassifier struct {
	mode            FurnitureMode
	bodyNode        *html.Node
	topLevelWrapper *html.Node // Single wrapper div/main if present
	densityCache    map[*html.Node]float64
}

func newFurnitureClassifier(mode FurnitureMode, doc *html.Node) *furnitureClassifier {
	fc := &furnitureClassifier{
		mode:         mode,
		densityCache: make(map[*html.Node]float64),
	}
	fc.bodyNode = findElement(doc, "body")
	if fc.bodyNode == nil {
		fc.bodyNode = doc
	}
	fc.topLevelWrapper = detectTopLevelWrapper(fc.bodyNode)
	return fc
}

// detectTopLevelWrapper finds the <body><div id="wrapper">...</div></body>
// pattern.
func detectTopLevelWrapper(body *html.Node) *html.Node {
	var wrapper *html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "div", "main":
			if wrapper != nil {
				return nil
			}
			wrapper = c
		case "script", "style", "noscript", "template":
		default:
			return nil
		}
	}
	return wrapper
}

func (fc *furnitureClassifier) classify(n *html.Node) furnitureKind {
	if n.Type != html.ElementNode || fc.mode == FurnitureNone {
		return furnitureContent
	}
	if kind := fc.classifyExplicit(n); kind != furnitureContent {
		return kind
	}
	if fc.mode >= FurnitureStandard {
		if kind := classifyByPattern(n); kind != furnitureContent {
			return kind
		}
	}
	if fc.mode >= FurnitureAggressive && fc.linkHeavy(n) {
		return furnitureHeader
	}
	return furnitureContent
}

func (fc *furnitureClassifier) classifyExplicit(n *html.Node) furnitureKind {
	switch n.Data {
	case "nav":
		return furnitureHeader
	case "aside":
		return furnitureSkip
	}

	switch getAttr(n, "role") {
	case "navigation":
		return furnitureHeader
	case "complementary":
		return furnitureSkip
	case "banner":
		if fc.isTopLevel(n) {
			return furnitureHeader
		}
	case "contentinfo":
		if fc.isTopLevel(n) {
			return furnitureFooter
		}
	}

	switch n.Data {
	case "header":
		if fc.isTopLevel(n) {
			return furnitureHeader
		}
	case "footer":
		if fc.isTopLevel(n) {
			return furnitureFooter
		}
	}
	return furnitureContent
}

// isTopLevel returns true if the node is a direct child of body or of a
// single top-level wrapper.
func (fc *furnitureClassifier) isTopLevel(n *html.Node) bool {
	parent := n.Parent
	if parent == nil {
		return false
	}
	return parent == fc.bodyNode || (fc.topLevelWrapper != nil && parent == fc.topLevelWrapper)
}

func classifyByPattern(n *html.Node) furnitureKind {
	for _, v := range []string{getAttr(n, "class"), getAttr(n, "id")} {
		if v == "" {
			continue
		}
		switch {
		case furniturePatterns.footer.MatchString(v):
			return furnitureFooter
		case furniturePatterns.sidebar.MatchString(v):
			return furnitureSkip
		case furniturePatterns.header.MatchString(v):
			return furnitureHeader
		}
	}
	return furnitureContent
}

// linkHeavy reports a block container whose text is mostly links.
func (fc *furnitureClassifier) linkHeavy(n *html.Node) bool {
	switch n.Data {
	case "div", "section", "ul", "ol":
	default:
		return false
	}
	return fc.linkDensity(n) > 0.6 && countLinks(n) >= 4
}

// linkDensity returns the ratio of link text to total text (0.0 to 1.0).
func (fc *furnitureClassifier) linkDensity(n *html.Node) float64 {
	if cached, ok := fc.densityCache[n]; ok {
		return cached
	}
	density := 0.0
	if total := textLength(n); total > 0 {
		density = float64(linkTextLength(n)) / float64(total)
	}
	fc.densityCache[n] = density
	return density
}

func textLength(n *html.Node) int {
	if n.Type == html.TextNode {
		return len(strings.TrimSpace(n.Data))
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += textLength(c)
	}
	return total
}

func linkTextLength(n *html.Node) int {
	if n.Type == html.ElementNode && n.Data == "a" {
		return textLength(n)
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += linkTextLength(c)
	}
	return total
}

func countLinks(n *html.Node) int {
	count := 0
	if n.Type == html.ElementNode && n.Data == "a" {
		count = 1
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countLinks(c)
	}
	return count
}

// getAttr returns the value of an attribute on a node, or "" if absent.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
