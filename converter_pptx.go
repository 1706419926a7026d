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
	"fmt"
	"io"
	"strings"
)

// TextParagraph is one paragraph of shape text with its outline level.
type TextParagraph struct {
	Text  string
	Level int
}

// Shape is a single drawable element on a slide. Implementations report
// only the content kinds they actually carry; the rest return zero values.
// This keeps the converter from probing shapes for content they were never
// going to have.
type Shape interface {
	IsTitle() bool
	Paragraphs() []TextParagraph
	Table() [][]string
	Image() []byte
	Children() []Shape
}

// Slide holds the shapes of one slide in document order.
type Slide struct {
	Shapes []Shape
}

// PresentationDecoder extracts slides and their shapes from raw
// presentation bytes.
type PresentationDecoder interface {
	DecodeSlides(data []byte) ([]Slide, error)
}

// PptxConverter handles PPTX and PPT files.
type PptxConverter struct {
	docnorm *Docnorm
}

// NewPptxConverter creates a new PptxConverter.
func NewPptxConverter(d *Docnorm) *PptxConverter {
	return &PptxConverter{docnorm: d}
}

func (c *PptxConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".pptx" || info.Extension == ".ppt" {
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "application/vnd.openxmlformats-officedocument.presentationml") ||
		mime == "application/vnd.ms-powerpoint"
}

func (c *PptxConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read presentation: %w", err)
	}

	slides, err := c.decoder().DecodeSlides(data)
	if err != nil {
		if info.Extension == ".ppt" {
			return nil, &LegacyFormatError{
				Extension: ".ppt",
				Advice:    "re-export the presentation as .pptx",
				Err:       err,
			}
		}
		return nil, fmt.Errorf("decode presentation: %w", err)
	}

	var diag Diagnostics
	var md strings.Builder
	for i, slide := range slides {
		md.WriteString(c.renderSlide(i+1, slide, &diag))
	}

	return &DocumentConverterResult{
		Markdown:    md.String(),
		Diagnostics: diag,
	}, nil
}

func (c *PptxConverter) decoder() PresentationDecoder {
	if c.docnorm != nil && c.docnorm.presDecoder != nil {
		return c.docnorm.presDecoder
	}
	return &OOXMLPresentationDecoder{}
}

// renderSlide emits one slide as a heading followed by text, then images,
// then tables. The section order is fixed regardless of shape order so that
// output stays stable across producers.
func (c *PptxConverter) renderSlide(num int, slide Slide, diag *Diagnostics) string {
	shapes := flattenShapes(slide.Shapes)

	title := ""
	var textLines []string
	var imageLines []string
	var tableBlocks []string

	for _, shape := range shapes {
		if shape.IsTitle() && title == "" {
			title = shapeText(shape)
			continue
		}

		for _, p := range shape.Paragraphs() {
			line := strings.TrimSpace(p.Text)
			if line == "" {
				continue
			}
			if p.Level > 0 {
				line = strings.Repeat("  ", p.Level) + "- " + line
			}
			textLines = append(textLines, line)
		}

		if img := shape.Image(); len(img) > 0 {
			format, ok := classifyImage(img)
			if !ok {
				diag.SkippedImages++
				continue
			}
			encoded := base64.StdEncoding.EncodeToString(img)
			imageLines = append(imageLines, fmt.Sprintf("![image-%s](data:image/%s;base64,%s)", newImageID(), format, encoded))
		}

		if tbl := shape.Table(); len(tbl) > 0 {
			tableBlocks = append(tableBlocks, renderMarkdownTable(tbl, nil))
		}
	}

	var md strings.Builder
	if title != "" {
		fmt.Fprintf(&md, "## Slide %d: %s\n\n", num, title)
	} else {
		fmt.Fprintf(&md, "## Slide %d\n\n", num)
	}
	if len(textLines) > 0 {
		md.WriteString(strings.Join(textLines, "\n"))
		md.WriteString("\n\n")
	}
	for _, line := range imageLines {
		md.WriteString(line)
		md.WriteString("\n\n")
	}
	for _, block := range tableBlocks {
		md.WriteString(block)
		md.WriteString("\n")
	}
	return md.String()
}

// flattenShapes lifts group members up next to their group so the renderer
// sees a single flat list.
func flattenShapes(shapes []Shape) []Shape {
	var out []Shape
	for _, s := range shapes {
		out = append(out, s)
		out = append(out, s.Children()...)
	}
	return out
}

func shapeText(shape Shape) string {
	var parts []string
	for _, p := range shape.Paragraphs() {
		if text := strings.TrimSpace(p.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
