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
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nicholasgasior/docnorm-go/internal/ooxml"
)

// OOXMLPresentationDecoder reads PresentationML packages directly, without
// external tooling.
type OOXMLPresentationDecoder struct{}

func (d *OOXMLPresentationDecoder) DecodeSlides(data []byte) ([]Slide, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open presentation ZIP: %w", err)
	}

	slidePaths, err := slideOrder(zr)
	if err != nil {
		return nil, fmt.Errorf("resolve slide order: %w", err)
	}

	var slides []Slide
	for _, slidePath := range slidePaths {
		slideData, err := ooxml.ReadFile(zr, slidePath)
		if err != nil {
			continue
		}
		rels, _ := ooxml.ParseRelationships(zr, ooxml.RelsPathFor(slidePath))
		slides = append(slides, Slide{Shapes: parseSlideShapes(slideData, slidePath, rels, zr)})
	}
	return slides, nil
}

// slideOrder returns slide part paths in presentation order.
func slideOrder(zr *zip.Reader) ([]string, error) {
	presData, err := ooxml.ReadFile(zr, "ppt/presentation.xml")
	if err != nil {
		return nil, err
	}

	rels, _ := ooxml.ParseRelationships(zr, "ppt/_rels/presentation.xml.rels")

	decoder := xml.NewDecoder(bytes.NewReader(presData))
	var slideRIDs []string
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldId" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "id" && strings.Contains(attr.Name.Space, "relationships") {
				slideRIDs = append(slideRIDs, attr.Value)
			}
		}
	}

	var slidePaths []string
	for _, rid := range slideRIDs {
		if rel, ok := rels[rid]; ok {
			slidePaths = append(slidePaths, ooxml.ResolveTarget("ppt/presentation.xml", rel.Target))
		}
	}

	if len(slidePaths) == 0 {
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
				slidePaths = append(slidePaths, f.Name)
			}
		}
		sort.Strings(slidePaths)
	}

	return slidePaths, nil
}

// xmlNode is a generic XML tree node.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Content  string     `xml:",chardata"`
}

func (n *xmlNode) getAttr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) findChild(local string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
	}
	return nil
}

func (n *xmlNode) findAll(local string) []*xmlNode {
	var result []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			result = append(result, &n.Children[i])
		}
	}
	return result
}

// findDeep finds the first descendant with the given local name.
func (n *xmlNode) findDeep(local string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
		if found := n.Children[i].findDeep(local); found != nil {
			return found
		}
	}
	return nil
}

// findAllDeep finds all descendants with the given local name.
func (n *xmlNode) findAllDeep(local string) []*xmlNode {
	var result []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			result = append(result, &n.Children[i])
		}
		result = append(result, n.Children[i].findAllDeep(local)...)
	}
	return result
}

// allText extracts all text content recursively.
func (n *xmlNode) allText() string {
	if n.Content != "" {
		return n.Content
	}
	var parts []string
	for i := range n.Children {
		if t := n.Children[i].allText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "")
}

// pptxShape is the concrete Shape produced by OOXMLPresentationDecoder.
// Each instance carries exactly one content kind; the other accessors
// return zero values.
type pptxShape struct {
	title      bool
	paragraphs []TextParagraph
	table      [][]string
	image      []byte
	children   []Shape
}

func (s *pptxShape) IsTitle() bool               { return s.title }
func (s *pptxShape) Paragraphs() []TextParagraph { return s.paragraphs }
func (s *pptxShape) Table() [][]string           { return s.table }
func (s *pptxShape) Image() []byte               { return s.image }
func (s *pptxShape) Children() []Shape           { return s.children }

func parseSlideShapes(slideData []byte, slidePath string, rels map[string]ooxml.Relationship, zr *zip.Reader) []Shape {
	var root xmlNode
	if err := xml.Unmarshal(slideData, &root); err != nil {
		return nil
	}
	spTree := root.findDeep("spTree")
	if spTree == nil {
		return nil
	}
	return collectShapes(spTree, slidePath, rels, zr, true)
}

// collectShapes walks the shape tree of a slide. Groups contribute their
// member shapes as children; groups nested inside groups are not descended
// into.
func collectShapes(node *xmlNode, slidePath string, rels map[string]ooxml.Relationship, zr *zip.Reader, allowGroups bool) []Shape {
	var shapes []Shape
	for i := range node.Children {
		child := &node.Children[i]
		switch child.XMLName.Local {
		case "sp":
			if s := parseTextShape(child); s != nil {
				shapes = append(shapes, s)
			}
		case "pic":
			if s := parsePictureShape(child, slidePath, rels, zr); s != nil {
				shapes = append(shapes, s)
			}
		case "graphicFrame":
			if s := parseTableShape(child); s != nil {
				shapes = append(shapes, s)
			}
		case "grpSp":
			if !allowGroups {
				continue
			}
			children := collectShapes(child, slidePath, rels, zr, false)
			if len(children) > 0 {
				shapes = append(shapes, &pptxShape{children: children})
			}
		}
	}
	return shapes
}

func parseTextShape(node *xmlNode) *pptxShape {
	txBody := node.findChild("txBody")
	if txBody == nil {
		return nil
	}

	shape := &pptxShape{title: isTitlePlaceholder(node)}

	for _, p := range txBody.findAll("p") {
		var parts []string
		for _, t := range p.findAllDeep("t") {
			if text := t.allText(); text != "" {
				parts = append(parts, text)
			}
		}
		text := strings.Join(parts, "")
		if strings.TrimSpace(text) == "" {
			continue
		}

		level := 0
		if pPr := p.findChild("pPr"); pPr != nil {
			if lvl := pPr.getAttr("lvl"); lvl != "" {
				if v, err := strconv.Atoi(lvl); err == nil && v > 0 {
					level = v
				}
			}
		}

		shape.paragraphs = append(shape.paragraphs, TextParagraph{Text: text, Level: level})
	}

	if len(shape.paragraphs) == 0 {
		return nil
	}
	return shape
}

func isTitlePlaceholder(node *xmlNode) bool {
	nvSpPr := node.findChild("nvSpPr")
	if nvSpPr == nil {
		return false
	}
	nvPr := nvSpPr.findChild("nvPr")
	if nvPr == nil {
		return false
	}
	ph := nvPr.findChild("ph")
	if ph == nil {
		return false
	}
	switch ph.getAttr("type") {
	case "title", "ctrTitle":
		return true
	case "":
		// Some layouts leave the type off the primary placeholder.
		return ph.getAttr("idx") == "0"
	}
	return false
}

func parsePictureShape(node *xmlNode, slidePath string, rels map[string]ooxml.Relationship, zr *zip.Reader) *pptxShape {
	blip := node.findDeep("blip")
	if blip == nil {
		return nil
	}
	rid := blip.getAttr("embed")
	if rid == "" {
		return nil
	}
	rel, ok := rels[rid]
	if !ok {
		return nil
	}

	mediaPath := ooxml.ResolveTarget(slidePath, rel.Target)
	data, err := ooxml.ReadFile(zr, mediaPath)
	if err != nil || len(data) == 0 {
		return nil
	}

	return &pptxShape{image: data}
}

func parseTableShape(node *xmlNode) *pptxShape {
	tbl := node.findDeep("tbl")
	if tbl == nil {
		return nil
	}

	var rows [][]string
	for _, tr := range tbl.findAll("tr") {
		var row []string
		for _, tc := range tr.findAll("tc") {
			text := ""
			if txBody := tc.findChild("txBody"); txBody != nil {
				var parts []string
				for _, p := range txBody.findAll("p") {
					var lineText []string
					for _, t := range p.findAllDeep("t") {
						if s := t.allText(); s != "" {
							lineText = append(lineText, s)
						}
					}
					if len(lineText) > 0 {
						parts = append(parts, strings.Join(lineText, ""))
					}
				}
				text = strings.Join(parts, " ")
			}
			row = append(row, strings.TrimSpace(text))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil
	}
	return &pptxShape{table: rows}
}
