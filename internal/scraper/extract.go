package scraper

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"risk-assessor/internal/models"
	"risk-assessor/internal/utils"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContentKeywords mark a text block as risk-relevant
var ContentKeywords = []string{
	"risk", "compliance", "security", "governance", "audit", "regulatory",
	"operational", "safety", "control", "vulnerability", "threat",
}

// LinkKeywords mark an anchor as pointing at a risk or compliance page
var LinkKeywords = []string{
	"risk", "compliance", "security", "governance", "audit", "regulatory",
	"operational", "safety", "control",
}

// containerClassHints identify generic divs that hold the main content
var containerClassHints = []string{"content", "main", "body"}

const (
	minBlockChars     = 20
	maxBlocks         = 30
	minFallbackLine   = 10
	maxFallbackLines  = 100
	blockSeparator    = "\n\n"
	fallbackSeparator = "\n"
)

// ExtractRiskText strips boilerplate from doc in place and returns risk-relevant text.
// Tiers: keyword blocks inside main-content containers, then keyword headings and
// paragraphs anywhere, then all visible lines.
func ExtractRiskText(doc *html.Node) string {
	utils.RemoveElements(doc, atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header)

	blocks := containerBlocks(doc)
	if len(blocks) == 0 {
		blocks = keywordBlocks(utils.FindAll(doc, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.P, atom.Li))
	}
	if len(blocks) > 0 {
		if len(blocks) > maxBlocks {
			blocks = blocks[:maxBlocks]
		}
		return strings.Join(blocks, blockSeparator)
	}

	return fallbackText(doc)
}

func mainContainers(doc *html.Node) []*html.Node {
	if containers := utils.FindAll(doc, atom.Main, atom.Article, atom.Section); len(containers) > 0 {
		return containers
	}
	var divs []*html.Node
	for _, d := range utils.FindAll(doc, atom.Div) {
		if utils.ClassContains(d, containerClassHints) {
			divs = append(divs, d)
		}
	}
	return divs
}

func containerBlocks(doc *html.Node) []string {
	var blocks []string
	for _, c := range mainContainers(doc) {
		if !utils.ContainsAny(utils.NodeText(c, "\n"), ContentKeywords) {
			continue
		}
		blocks = append(blocks, keywordBlocks(utils.FindAll(c, atom.P, atom.Li, atom.Div))...)
	}
	return blocks
}

func keywordBlocks(nodes []*html.Node) []string {
	var blocks []string
	for _, n := range nodes {
		text := utils.NodeText(n, " ")
		if utf8.RuneCountInString(text) <= minBlockChars {
			continue
		}
		if utils.ContainsAny(text, ContentKeywords) {
			blocks = append(blocks, text)
		}
	}
	return blocks
}

func fallbackText(doc *html.Node) string {
	var lines []string
	for _, ln := range strings.Split(utils.NodeText(doc, "\n"), "\n") {
		ln = strings.TrimSpace(ln)
		if utf8.RuneCountInString(ln) <= minFallbackLine {
			continue
		}
		lines = append(lines, ln)
		if len(lines) == maxFallbackLines {
			break
		}
	}
	return strings.Join(lines, fallbackSeparator)
}

// FindRiskSubpages returns up to five absolute http(s) URLs of anchors whose href or
// visible text contains a link keyword, resolved against baseURL, in discovery order
func FindRiskSubpages(baseURL string, doc *html.Node) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})
	for _, a := range utils.FindAll(doc, atom.A) {
		href := strings.TrimSpace(utils.Attr(a, "href"))
		if href == "" {
			continue
		}
		if !utils.ContainsAny(href, LinkKeywords) && !utils.ContainsAny(utils.NodeText(a, " "), LinkKeywords) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if samePage(base, resolved) {
			continue
		}

		full := resolved.String()
		if _, dup := seen[full]; dup {
			continue
		}
		seen[full] = struct{}{}
		links = append(links, full)
		if len(links) == models.MaxRiskSubpages {
			break
		}
	}
	return links
}

// samePage reports whether two URLs address the same document, ignoring fragments
func samePage(a, b *url.URL) bool {
	return pageKey(a) == pageKey(b)
}

func pageKey(u *url.URL) string {
	page := *u
	page.Fragment = ""
	page.RawFragment = ""
	page.Host = strings.ToLower(page.Host)
	if page.Path == "" {
		page.Path = "/"
		page.RawPath = ""
	}
	return page.String()
}
