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
	"strings"

	"golang.org/x/net/html"
)

// removedElements are presentation/behavioral nodes stripped entirely,
// including the document-metadata head.
var removedElements = map[string]bool{
	"head":   true,
	"style":  true,
	"script": true,
	"video":  true,
	"audio":  true,
}

// removedAttributes are layout-only attributes carrying no structural or
// textual content. The data-sheets-* entries are value/formula hints left by
// spreadsheet-to-HTML converters.
var removedAttributes = map[string]bool{
	"style":                    true,
	"align":                    true,
	"valign":                   true,
	"bgcolor":                  true,
	"sdval":                    true,
	"sdnum":                    true,
	"height":                   true,
	"width":                    true,
	"cellspacing":              true,
	"border":                   true,
	"span":                     true,
	"hspace":                   true,
	"vspace":                   true,
	"data-sheets-value":        true,
	"data-sheets-numberformat": true,
	"data-sheets-formula":      true,
}

// commentIndicatorClass marks helper nodes left by spreadsheet-to-HTML
// converters next to commented cells.
const commentIndicatorClass = "comment-indicator"

// sanitizeHTML strips presentation-only markup from an HTML string and
// returns the cleaned document. Deterministic and idempotent.
func sanitizeHTML(htmlStr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := html.Render(&b, sanitizeTree(doc)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// sanitizeTree returns a pruned copy of the tree with metadata and
// presentation nodes removed, layout attributes stripped, font wrappers
// unwrapped, comment indicators dropped, and comment nodes discarded. The
// input tree is never mutated, so trees can be shared across conversions.
func sanitizeTree(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      sanitizeAttributes(n.Attr),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		for _, kept := range sanitizeChild(c) {
			clone.AppendChild(kept)
		}
	}
	return clone
}

// sanitizeChild maps one child node to zero or more sanitized replacements:
// zero when the node is removed, several when a font wrapper is unwrapped.
func sanitizeChild(c *html.Node) []*html.Node {
	switch {
	case c.Type == html.CommentNode:
		return nil
	case c.Type == html.ElementNode && removedElements[c.Data]:
		return nil
	case c.Type == html.ElementNode && hasClass(c, commentIndicatorClass):
		return nil
	case c.Type == html.ElementNode && c.Data == "font":
		// Unwrap: promote sanitized children, preserving their text.
		var promoted []*html.Node
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			promoted = append(promoted, sanitizeChild(gc)...)
		}
		return promoted
	default:
		return []*html.Node{sanitizeTree(c)}
	}
}

func sanitizeAttributes(attrs []html.Attribute) []html.Attribute {
	var kept []html.Attribute
	for _, a := range attrs {
		if removedAttributes[strings.ToLower(a.Key)] {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if strings.ToLower(a.Key) != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
