package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"jasper-go/internal/jasper"
)

// DefaultMaxSubresources caps how many subresources one page may inline.
const DefaultMaxSubresources = 200

// HTMLPackager makes fetched pages renderable offline. Images become data
// URIs, stylesheets become <style> blocks and external scripts are inlined.
// Markdown documents are rendered to HTML first. Other content passes through.
type HTMLPackager struct {
	fetcher jasper.Fetcher
	logger  jasper.Logger
	md      goldmark.Markdown
	max     int
}

// NewHTMLPackager creates a packager that retrieves subresources with fetcher.
func NewHTMLPackager(fetcher jasper.Fetcher, logger jasper.Logger) *HTMLPackager {
	if logger == nil {
		logger = jasper.NewNopLogger()
	}
	return &HTMLPackager{
		fetcher: fetcher,
		logger:  logger,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		max:     DefaultMaxSubresources,
	}
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Package returns a self-contained rendition of doc.
func (p *HTMLPackager) Package(ctx context.Context, doc *jasper.FetchResult) (*jasper.Package, error) {
	switch mediaType(doc.ContentType) {
	case "text/html", "application/xhtml+xml":
		return p.packageHTML(ctx, doc.Body, doc.URL)
	case "text/markdown", "text/x-markdown":
		page, err := p.renderMarkdown(doc)
		if err != nil {
			return nil, err
		}
		return p.packageHTML(ctx, page, doc.URL)
	default:
		return &jasper.Package{Body: doc.Body, ContentType: doc.ContentType}, nil
	}
}

func (p *HTMLPackager) renderMarkdown(doc *jasper.FetchResult) ([]byte, error) {
	var body bytes.Buffer
	if err := p.md.Convert(doc.Body, &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	title := path.Base(doc.URL)
	if u, err := url.Parse(doc.URL); err == nil && u.Path != "" {
		title = path.Base(u.Path)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>")
	page.WriteString(html.EscapeString(title))
	page.WriteString("</title></head><body>")
	page.Write(body.Bytes())
	page.WriteString("</body></html>")
	return page.Bytes(), nil
}

// subresource is a node whose reference should be inlined.
type subresource struct {
	node *xhtml.Node
	ref  string
}

func (p *HTMLPackager) packageHTML(ctx context.Context, body []byte, docURL string) (*jasper.Package, error) {
	root, err := xhtml.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	base, err := url.Parse(docURL)
	if err != nil {
		return nil, fmt.Errorf("parsing document url: %w", err)
	}

	var refs []subresource
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			switch n.DataAtom {
			case atom.Base:
				if href := attr(n, "href"); href != "" {
					if u, err := base.Parse(href); err == nil {
						base = u
					}
				}
			case atom.Img:
				refs = appendRef(refs, n, "src")
			case atom.Script:
				refs = appendRef(refs, n, "src")
			case atom.Link:
				if hasToken(attr(n, "rel"), "stylesheet") {
					refs = appendRef(refs, n, "href")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	inlined := 0
	for _, r := range refs {
		if inlined >= p.max {
			p.logger.Warn("subresource limit reached", "url", docURL, "limit", p.max)
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target, err := base.Parse(r.ref)
		if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
			continue
		}
		res, err := p.fetcher.Fetch(ctx, target.String())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Debug("subresource skipped", "url", target.String(), "error", err)
			continue
		}
		inline(r, res)
		inlined++
	}

	var out bytes.Buffer
	if err := xhtml.Render(&out, root); err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	return &jasper.Package{
		Body:        out.Bytes(),
		ContentType: "text/html; charset=utf-8",
		Inlined:     inlined,
	}, nil
}

func inline(r subresource, res *jasper.FetchResult) {
	n := r.node
	switch n.DataAtom {
	case atom.Img:
		ct := mediaType(res.ContentType)
		if ct == "" || ct == "application/octet-stream" {
			ct = mediaType(http.DetectContentType(res.Body))
		}
		setAttr(n, "src", "data:"+ct+";base64,"+base64.StdEncoding.EncodeToString(res.Body))
	case atom.Script:
		removeAttr(n, "src")
		for c := n.FirstChild; c != nil; c = n.FirstChild {
			n.RemoveChild(c)
		}
		n.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: neutralizeClose(string(res.Body), "script")})
	case atom.Link:
		style := &xhtml.Node{Type: xhtml.ElementNode, Data: "style", DataAtom: atom.Style}
		if media := attr(n, "media"); media != "" {
			style.Attr = append(style.Attr, xhtml.Attribute{Key: "media", Val: media})
		}
		style.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: neutralizeClose(string(res.Body), "style")})
		if n.Parent != nil {
			n.Parent.InsertBefore(style, n)
			n.Parent.RemoveChild(n)
		}
	}
}

// neutralizeClose stops inlined text from closing its raw-text element early.
func neutralizeClose(s, tag string) string {
	return strings.ReplaceAll(s, "</"+tag, `<\/`+tag)
}

func appendRef(refs []subresource, n *xhtml.Node, key string) []subresource {
	ref := strings.TrimSpace(attr(n, key))
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return refs
	}
	return append(refs, subresource{node: n, ref: ref})
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *xhtml.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, xhtml.Attribute{Key: key, Val: val})
}

func removeAttr(n *xhtml.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if !(a.Namespace == "" && strings.EqualFold(a.Key, key)) {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

var _ jasper.Packager = (*HTMLPackager)(nil)
