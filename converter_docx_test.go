package docnorm

import (
	"bytes"
	"strings"
	"testing"
)

const wordNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`

const testStylesXML = `<?xml version="1.0"?>` +
	`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/></w:style>` +
	`</w:styles>`

// buildTestDocx assembles a minimal Word package around the given body XML.
func buildTestDocx(t *testing.T, body string, extra map[string][]byte) []byte {
	t.Helper()
	files := map[string][]byte{
		"word/document.xml": []byte(`<?xml version="1.0"?>` +
			`<w:document ` + wordNamespaces + `><w:body>` + body + `</w:body></w:document>`),
		"word/styles.xml": []byte(testStylesXML),
		"word/_rels/document.xml.rels": []byte(`<?xml version="1.0"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>` +
			`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com" TargetMode="External"/>` +
			`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/object1.emf"/>` +
			`</Relationships>`),
	}
	for name, content := range extra {
		files[name] = content
	}
	return buildZip(t, files)
}

func wordDrawing(embedID, descr string) string {
	return `<w:drawing><wp:inline><wp:docPr id="1" name="pic" descr="` + descr + `"/>` +
		`<a:graphic><a:graphicData><pic:pic><pic:blipFill>` +
		`<a:blip r:embed="` + embedID + `"/>` +
		`</pic:blipFill></pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`
}

func TestOOXMLWordDecoder(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Document Title</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>plain with </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r></w:p>` +
		`<w:p><w:hyperlink r:id="rId2"><w:r><w:t>a link</w:t></w:r></w:hyperlink></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>h1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>h2</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>v1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>v2</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`<w:p><w:r>` + wordDrawing("rId1", "a diagram") + `</w:r></w:p>`

	data := buildTestDocx(t, body, map[string][]byte{
		"word/media/image1.png": makeTestPNG(t),
	})

	dec := &OOXMLWordDecoder{}
	htmlStr, err := dec.DecodeHTML(data, inlineImageConverter)
	if err != nil {
		t.Fatalf("DecodeHTML error: %v", err)
	}

	for _, s := range []string{
		"<h1>Document Title</h1>",
		"<b>bold</b>",
		`<a href="https://example.com">a link</a>`,
		"<th>h1</th>",
		"<td>v2</td>",
		`src="data:image/png;base64,`,
		`alt="a diagram"`,
	} {
		if !strings.Contains(htmlStr, s) {
			t.Errorf("HTML missing %q:\n%s", s, truncate(htmlStr, 800))
		}
	}
}

func TestDocxConverterEndToEnd(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Report</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Intro paragraph.</w:t></w:r></w:p>` +
		`<w:p><w:r>` + wordDrawing("rId1", "figure one") + `</w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>k</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>val</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`

	data := buildTestDocx(t, body, map[string][]byte{
		"word/media/image1.png": makeTestPNG(t),
	})

	d := New()
	result, err := d.ConvertReader(bytes.NewReader(data), StreamInfo{Extension: ".docx"})
	if err != nil {
		t.Fatalf("ConvertReader error: %v", err)
	}

	if !strings.Contains(result.Markdown, "# Report") {
		t.Errorf("heading missing:\n%s", truncate(result.Markdown, 500))
	}
	if !strings.Contains(result.Markdown, "Intro paragraph.") {
		t.Errorf("paragraph missing:\n%s", truncate(result.Markdown, 500))
	}
	if !strings.Contains(result.Markdown, "| k |") || !strings.Contains(result.Markdown, "| val |") {
		t.Errorf("table missing:\n%s", truncate(result.Markdown, 500))
	}

	m := reImageRef.FindStringSubmatch(result.Markdown)
	if m == nil {
		t.Fatalf("embedded image not referenced:\n%s", truncate(result.Markdown, 500))
	}
	if m[1] != "figure one" {
		t.Errorf("alt text = %q, want %q", m[1], "figure one")
	}
	if len(result.Images) != 1 {
		t.Fatalf("registry has %d entries, want 1", len(result.Images))
	}
	registryPNG(t, result.Images[m[2]])
}

func TestDocxConverterEmbeddedObjectGlyph(t *testing.T) {
	body := `<w:p><w:r><w:t>before</w:t></w:r></w:p>` +
		`<w:p><w:r>` + wordDrawing("rId3", "legacy object") + `</w:r></w:p>` +
		`<w:p><w:r><w:t>after</w:t></w:r></w:p>`

	data := buildTestDocx(t, body, map[string][]byte{
		"word/media/object1.emf": []byte("EMF metafile bytes"),
	})

	d := New()
	result, err := d.ConvertReader(bytes.NewReader(data), StreamInfo{Extension: ".docx"})
	if err != nil {
		t.Fatalf("ConvertReader error: %v", err)
	}

	if !strings.Contains(result.Markdown, embeddedObjectIcon) {
		t.Errorf("embedded object glyph missing:\n%s", result.Markdown)
	}
	if strings.Contains(result.Markdown, "![") {
		t.Errorf("metafile leaked as an image:\n%s", result.Markdown)
	}
	if len(result.Images) != 0 {
		t.Errorf("registry has %d entries, want 0", len(result.Images))
	}
}

func TestDocxConverterSkipsDisallowedImage(t *testing.T) {
	// word/media carries a GIF; the payload check drops it.
	body := `<w:p><w:r><w:t>text</w:t></w:r></w:p>` +
		`<w:p><w:r>` + wordDrawing("rId1", "animated") + `</w:r></w:p>`

	data := buildTestDocx(t, body, map[string][]byte{
		"word/media/image1.png": makeTestGIF(t),
	})

	d := New()
	result, err := d.ConvertReader(bytes.NewReader(data), StreamInfo{Extension: ".docx"})
	if err != nil {
		t.Fatalf("ConvertReader error: %v", err)
	}

	if strings.Contains(result.Markdown, "![") {
		t.Errorf("disallowed image survived:\n%s", result.Markdown)
	}
	if result.Diagnostics.SkippedImages != 1 {
		t.Errorf("SkippedImages = %d, want 1", result.Diagnostics.SkippedImages)
	}
}
