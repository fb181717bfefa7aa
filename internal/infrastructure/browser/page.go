package browser

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ClassChecker reports whether a page contains an element carrying a class
type ClassChecker interface {
	HasClass(class string) bool
}

// HTMLPage is a parsed server-rendered page
type HTMLPage struct {
	path    string
	root    *html.Node
	classes map[string]struct{}
	title   string
}

// ParseHTMLPage parses markup fetched from path
func ParseHTMLPage(path string, markup []byte) (*HTMLPage, error) {
	root, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", path, err)
	}
	p := &HTMLPage{path: path, root: root, classes: make(map[string]struct{})}
	p.index(root)
	return p, nil
}

func (p *HTMLPage) index(n *html.Node) {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" {
				for _, c := range strings.Fields(a.Val) {
					p.classes[c] = struct{}{}
				}
			}
		}
		if n.Data == "title" && p.title == "" && n.FirstChild != nil {
			p.title = strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.index(c)
	}
}

// HasClass implements ClassChecker
func (p *HTMLPage) HasClass(class string) bool {
	_, ok := p.classes[class]
	return ok
}

// Path returns the path the page was loaded from
func (p *HTMLPage) Path() string {
	return p.path
}

// Title returns the page title, if any
func (p *HTMLPage) Title() string {
	return p.title
}
