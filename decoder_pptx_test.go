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
	"testing"
)

// buildZip assembles an in-memory ZIP archive from name -> content pairs.
func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const pptxNamespaces = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

func buildTestPresentation(t *testing.T, slide1 string) []byte {
	t.Helper()
	return buildZip(t, map[string][]byte{
		"ppt/presentation.xml": []byte(`<?xml version="1.0"?>` +
			`<p:presentation ` + pptxNamespaces + `>` +
			`<p:sldIdLst><p:sldId id="256" r:id="rId1"/></p:sldIdLst>` +
			`</p:presentation>`),
		"ppt/_rels/presentation.xml.rels": []byte(`<?xml version="1.0"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>` +
			`</Relationships>`),
		"ppt/slides/slide1.xml": []byte(slide1),
		"ppt/slides/_rels/slide1.xml.rels": []byte(`<?xml version="1.0"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>` +
			`</Relationships>`),
		"ppt/media/image1.png": makeTestPNG(t),
	})
}

func TestOOXMLPresentationDecoder(t *testing.T) {
	slide := `<?xml version="1.0"?>` +
		`<p:sld ` + pptxNamespaces + `><p:cSld><p:spTree>` +
		// Title placeholder
		`<p:sp><p:nvSpPr><p:cNvPr id="1" name="Title"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>` +
		`<p:txBody><a:p><a:r><a:t>Slide Title</a:t></a:r></a:p></p:txBody></p:sp>` +
		// Body text with an indented paragraph
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Body"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>` +
		`<p:txBody><a:p><a:r><a:t>first point</a:t></a:r></a:p>` +
		`<a:p><a:pPr lvl="1"/><a:r><a:t>nested point</a:t></a:r></a:p></p:txBody></p:sp>` +
		// Picture
		`<p:pic><p:nvPicPr><p:cNvPr id="3" name="Picture"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>` +
		`<p:blipFill><a:blip r:embed="rId2"/></p:blipFill></p:pic>` +
		// Table
		`<p:graphicFrame><a:graphic><a:graphicData>` +
		`<a:tbl><a:tr><a:tc><a:txBody><a:p><a:r><a:t>h1</a:t></a:r></a:p></a:txBody></a:tc>` +
		`<a:tc><a:txBody><a:p><a:r><a:t>h2</a:t></a:r></a:p></a:txBody></a:tc></a:tr>` +
		`<a:tr><a:tc><a:txBody><a:p><a:r><a:t>v1</a:t></a:r></a:p></a:txBody></a:tc>` +
		`<a:tc><a:txBody><a:p><a:r><a:t>v2</a:t></a:r></a:p></a:txBody></a:tc></a:tr></a:tbl>` +
		`</a:graphicData></a:graphic></p:graphicFrame>` +
		`</p:spTree></p:cSld></p:sld>`

	dec := &OOXMLPresentationDecoder{}
	slides, err := dec.DecodeSlides(buildTestPresentation(t, slide))
	if err != nil {
		t.Fatalf("DecodeSlides error: %v", err)
	}
	if len(slides) != 1 {
		t.Fatalf("got %d slides, want 1", len(slides))
	}

	shapes := slides[0].Shapes
	if len(shapes) != 4 {
		t.Fatalf("got %d shapes, want 4", len(shapes))
	}

	// Title
	if !shapes[0].IsTitle() {
		t.Error("first shape not recognized as title")
	}
	if got := shapes[0].Paragraphs()[0].Text; got != "Slide Title" {
		t.Errorf("title text = %q, want %q", got, "Slide Title")
	}

	// Body text with levels
	paras := shapes[1].Paragraphs()
	if len(paras) != 2 {
		t.Fatalf("got %d body paragraphs, want 2", len(paras))
	}
	if paras[0].Text != "first point" || paras[0].Level != 0 {
		t.Errorf("paragraph 0 = %+v", paras[0])
	}
	if paras[1].Text != "nested point" || paras[1].Level != 1 {
		t.Errorf("paragraph 1 = %+v", paras[1])
	}

	// Picture bytes resolved through slide rels
	img := shapes[2].Image()
	if len(img) == 0 {
		t.Fatal("picture shape carries no bytes")
	}
	if format, ok := classifyImage(img); !ok || format != "png" {
		t.Errorf("picture decoded as (%q, %v), want png", format, ok)
	}

	// Table
	table := shapes[3].Table()
	want := [][]string{{"h1", "h2"}, {"v1", "v2"}}
	if len(table) != 2 || table[0][0] != want[0][0] || table[1][1] != want[1][1] {
		t.Errorf("table = %v, want %v", table, want)
	}
}

func TestOOXMLPresentationDecoderGroup(t *testing.T) {
	slide := `<?xml version="1.0"?>` +
		`<p:sld ` + pptxNamespaces + `><p:cSld><p:spTree>` +
		`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="10" name="Group"/></p:nvGrpSpPr>` +
		`<p:sp><p:nvSpPr><p:cNvPr id="11" name="Caption"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>` +
		`<p:txBody><a:p><a:r><a:t>grouped text</a:t></a:r></a:p></p:txBody></p:sp>` +
		`<p:pic><p:nvPicPr><p:cNvPr id="12" name="GroupedPic"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>` +
		`<p:blipFill><a:blip r:embed="rId2"/></p:blipFill></p:pic>` +
		`</p:grpSp>` +
		`</p:spTree></p:cSld></p:sld>`

	dec := &OOXMLPresentationDecoder{}
	slides, err := dec.DecodeSlides(buildTestPresentation(t, slide))
	if err != nil {
		t.Fatalf("DecodeSlides error: %v", err)
	}
	if len(slides) != 1 {
		t.Fatalf("got %d slides, want 1", len(slides))
	}

	shapes := slides[0].Shapes
	if len(shapes) != 1 {
		t.Fatalf("got %d top-level shapes, want 1 group", len(shapes))
	}

	children := shapes[0].Children()
	if len(children) != 2 {
		t.Fatalf("group has %d children, want 2", len(children))
	}
	if got := children[0].Paragraphs()[0].Text; got != "grouped text" {
		t.Errorf("grouped text = %q", got)
	}
	if len(children[1].Image()) == 0 {
		t.Error("grouped picture carries no bytes")
	}
}

func TestOOXMLPresentationDecoderSlideOrderFallback(t *testing.T) {
	// No presentation.xml rels entries: slides are discovered by filename.
	data := buildZip(t, map[string][]byte{
		"ppt/presentation.xml": []byte(`<?xml version="1.0"?><p:presentation ` + pptxNamespaces + `/>`),
		"ppt/slides/slide2.xml": []byte(`<?xml version="1.0"?><p:sld ` + pptxNamespaces + `><p:cSld><p:spTree>` +
			`<p:sp><p:nvSpPr><p:cNvPr id="1" name="b"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>` +
			`<p:txBody><a:p><a:r><a:t>second</a:t></a:r></a:p></p:txBody></p:sp>` +
			`</p:spTree></p:cSld></p:sld>`),
		"ppt/slides/slide1.xml": []byte(`<?xml version="1.0"?><p:sld ` + pptxNamespaces + `><p:cSld><p:spTree>` +
			`<p:sp><p:nvSpPr><p:cNvPr id="1" name="a"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>` +
			`<p:txBody><a:p><a:r><a:t>first</a:t></a:r></a:p></p:txBody></p:sp>` +
			`</p:spTree></p:cSld></p:sld>`),
	})

	dec := &OOXMLPresentationDecoder{}
	slides, err := dec.DecodeSlides(data)
	if err != nil {
		t.Fatalf("DecodeSlides error: %v", err)
	}
	if len(slides) != 2 {
		t.Fatalf("got %d slides, want 2", len(slides))
	}
	if got := slides[0].Shapes[0].Paragraphs()[0].Text; got != "first" {
		t.Errorf("slide order wrong, first slide text = %q", got)
	}
}
