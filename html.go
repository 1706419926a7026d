// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package docnorm

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

// htmlToMarkdown converts the intermediate HTML representation to markdown.
// Inline base64 images survive the conversion; the engine's rewriter handles
// them afterwards.
func htmlToMarkdown(htmlStr string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
			),
			table.NewTablePlugin(),
		),
	)

	md, err := conv.ConvertString(htmlStr)
	if err != nil {
		return "", err
	}

	return md, nil
}

var (
	reDataURIImage = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,(.*)$`)
	reSrcExtension = regexp.MustCompile(`\.([a-zA-Z0-9]+)(\?|$)`)
)

// filterUnsupportedImages removes every <img> whose payload fails the
// png/jpg/jpeg allow-list. Inline data URIs are judged by their decoded
// bytes, never by the claimed MIME label; plain-path references (left by the
// PDF decoder when a file could not be resolved) are judged by extension.
// Image removal is non-fatal and counted in diag.
func filterUnsupportedImages(htmlStr string, diag *Diagnostics) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	var doomed []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			if !imageNodeAllowed(n) {
				doomed = append(doomed, n)
				diag.SkippedImages++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

func imageNodeAllowed(n *html.Node) bool {
	src := getAttr(n, "src")
	if src == "" {
		return true
	}

	if strings.HasPrefix(src, "data:") {
		m := reDataURIImage.FindStringSubmatch(src)
		if m == nil {
			return false
		}
		payload, err := base64.StdEncoding.DecodeString(m[2])
		if err != nil {
			return false
		}
		_, ok := classifyImage(payload)
		return ok
	}

	// Non-inline reference: only the extension is available.
	if m := reSrcExtension.FindStringSubmatch(src); m != nil {
		return isSupportedImageFormat(m[1])
	}
	return true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// extractHTMLTitle extracts the title from an HTML document.
func extractHTMLTitle(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var title string
	var findTitle func(*html.Node)
	findTitle = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findTitle(c)
			if title != "" {
				return
			}
		}
	}
	findTitle(doc)

	return strings.TrimSpace(title)
}

func escapeHTMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeHTMLAttr(s string) string {
	s = escapeHTMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
