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
	"path"
	"strings"

	"github.com/nicholasgasior/docnorm-go/internal/ooxml"
)

// OOXMLWordDecoder is the built-in WordDecoder. It tokenizes
// word/document.xml directly and emits an HTML rendition with headings,
// inline formatting, hyperlinks, lists, tables, and embedded images.
type OOXMLWordDecoder struct{}

func (dec *OOXMLWordDecoder) DecodeHTML(data []byte, convertImage ImageConverter) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open DOCX ZIP: %w", err)
	}

	rels, _ := ooxml.ParseRelationships(zr, "word/_rels/document.xml.rels")
	styles := parseWordStyles(zr)

	docData, err := ooxml.ReadFile(zr, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("read document.xml: %w", err)
	}

	return wordBodyToHTML(docData, rels, styles, zr, convertImage), nil
}

// parseWordStyles maps style IDs to their display names for heading detection.
func parseWordStyles(zr *zip.Reader) map[string]string {
	styles := make(map[string]string)
	data, err := ooxml.ReadFile(zr, "word/styles.xml")
	if err != nil {
		return styles
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var currentStyleID string
	var inStyle bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				inStyle = true
				for _, attr := range t.Attr {
					if attr.Name.Local == "styleId" {
						currentStyleID = attr.Value
					}
				}
			case "name":
				if inStyle {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							styles[currentStyleID] = attr.Value
						}
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				inStyle = false
				currentStyleID = ""
			}
		}
	}
	return styles
}

// wordBodyToHTML streams the document body XML and builds the HTML rendition.
func wordBodyToHTML(docData []byte, rels map[string]ooxml.Relationship, styles map[string]string, zr *zip.Reader, convertImage ImageConverter) string {
	type state struct {
		inRun       bool
		inText      bool
		inTableCell bool
		bold        bool
		italic      bool
		strike      bool
		styleID     string
		hyperRef    string
		inHyper     bool
		inList      bool
		listNumID   string
	}

	decoder := xml.NewDecoder(bytes.NewReader(docData))

	var s state
	var textBuf strings.Builder
	var blocks []string
	var currentPara strings.Builder
	var tableRows [][]string
	var currentRow []string
	var cellContent strings.Builder

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				currentPara.Reset()
				s.styleID = ""
				s.inList = false
				s.listNumID = ""

			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						s.styleID = attr.Value
					}
				}

			case "numPr":
				s.inList = true

			case "numId":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						s.listNumID = attr.Value
					}
				}

			case "r":
				s.inRun = true
				s.bold = false
				s.italic = false
				s.strike = false

			case "b":
				if s.inRun {
					s.bold = attrVal(t, "val") != "0"
				}

			case "i":
				if s.inRun {
					s.italic = attrVal(t, "val") != "0"
				}

			case "strike":
				if s.inRun {
					s.strike = true
				}

			case "t":
				s.inText = true
				textBuf.Reset()

			case "tab":
				if s.inRun {
					currentPara.WriteString("\t")
				}

			case "br":
				if s.inRun {
					currentPara.WriteString("<br/>")
				}

			case "hyperlink":
				s.inHyper = true
				for _, attr := range t.Attr {
					if attr.Name.Local == "id" && strings.Contains(attr.Name.Space, "relationships") {
						if rel, ok := rels[attr.Value]; ok {
							s.hyperRef = rel.Target
						}
					}
				}

			case "tbl":
				tableRows = nil

			case "tr":
				currentRow = nil

			case "tc":
				s.inTableCell = true
				cellContent.Reset()

			case "drawing", "pict":
				img := extractWordImage(decoder, rels, zr, convertImage)
				if img != "" {
					if s.inTableCell {
						cellContent.WriteString(img)
					} else {
						currentPara.WriteString(img)
					}
				}
			}

		case xml.CharData:
			if s.inText {
				textBuf.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if s.inText {
					text := escapeHTMLText(textBuf.String())
					if s.bold {
						text = "<b>" + text + "</b>"
					}
					if s.italic {
						text = "<i>" + text + "</i>"
					}
					if s.strike {
						text = "<s>" + text + "</s>"
					}
					if s.inHyper && s.hyperRef != "" {
						text = `<a href="` + escapeHTMLAttr(s.hyperRef) + `">` + text + "</a>"
					}
					if s.inTableCell {
						cellContent.WriteString(text)
					} else {
						currentPara.WriteString(text)
					}
					s.inText = false
				}

			case "r":
				s.inRun = false

			case "hyperlink":
				s.inHyper = false
				s.hyperRef = ""

			case "p":
				paraText := currentPara.String()
				if s.inTableCell {
					cellContent.WriteString(paraText)
					break
				}
				if level := headingLevel(s.styleID, styles); level > 0 {
					tag := fmt.Sprintf("h%d", level)
					paraText = "<" + tag + ">" + paraText + "</" + tag + ">"
				} else if s.inList && s.listNumID != "0" {
					paraText = "<li>" + paraText + "</li>"
				} else if paraText != "" {
					paraText = "<p>" + paraText + "</p>"
				}
				if paraText != "" {
					blocks = append(blocks, paraText)
				}
				s.styleID = ""

			case "tc":
				currentRow = append(currentRow, cellContent.String())
				s.inTableCell = false

			case "tr":
				tableRows = append(tableRows, currentRow)

			case "tbl":
				if len(tableRows) > 0 {
					blocks = append(blocks, rowsToHTMLTable(tableRows))
				}
			}
		}
	}

	var html strings.Builder
	html.WriteString("<html><body>")
	for _, b := range blocks {
		html.WriteString(b)
		html.WriteString("\n")
	}
	html.WriteString("</body></html>")
	return html.String()
}

func attrVal(se xml.StartElement, name string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// rowsToHTMLTable renders collected table rows as an HTML table; the first
// row is the header.
func rowsToHTMLTable(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>")
	for i, row := range rows {
		b.WriteString("<tr>")
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		for _, cell := range row {
			b.WriteString("<" + tag + ">" + cell + "</" + tag + ">")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// headingLevel returns the heading level (1-6) for a style, or 0 if not a heading.
func headingLevel(styleID string, styles map[string]string) int {
	if styleID == "" {
		return 0
	}

	lower := strings.ToLower(styleID)
	for i := 1; i <= 6; i++ {
		if lower == fmt.Sprintf("heading%d", i) || lower == fmt.Sprintf("heading %d", i) {
			return i
		}
	}

	// Check style name from styles.xml
	if name, ok := styles[styleID]; ok {
		nameLower := strings.ToLower(name)
		for i := 1; i <= 6; i++ {
			if nameLower == fmt.Sprintf("heading %d", i) {
				return i
			}
		}
	}

	return 0
}

// extractWordImage consumes a drawing/pict element and returns an <img> tag,
// or "" when the image cannot be resolved or was declined by convertImage.
func extractWordImage(decoder *xml.Decoder, rels map[string]ooxml.Relationship, zr *zip.Reader, convertImage ImageConverter) string {
	depth := 1
	var embedID string
	var altText string

	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "blip" {
				for _, attr := range t.Attr {
					if attr.Name.Local == "embed" {
						embedID = attr.Value
					}
				}
			}
			if t.Name.Local == "docPr" {
				for _, attr := range t.Attr {
					if attr.Name.Local == "descr" {
						altText = attr.Value
					}
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	if embedID == "" {
		return ""
	}
	rel, ok := rels[embedID]
	if !ok {
		return ""
	}

	imgData, err := ooxml.ReadFile(zr, "word/"+rel.Target)
	if err != nil {
		imgData, err = ooxml.ReadFile(zr, rel.Target)
		if err != nil {
			return ""
		}
	}

	src, ok := convertImage(imageContentType(rel.Target), imgData)
	if !ok {
		return ""
	}

	if altText == "" {
		altText = path.Base(rel.Target)
	}
	return fmt.Sprintf(`<img src="%s" alt="%s"/>`, src, escapeHTMLAttr(altText))
}

// imageContentType maps media file extensions to their declared content type.
func imageContentType(target string) string {
	switch strings.ToLower(path.Ext(target)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	case ".emf":
		return "image/x-emf"
	case ".wmf":
		return "image/x-wmf"
	default:
		return "image/png"
	}
}
