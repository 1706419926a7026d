package docnorm

import (
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	// embeddedObjectSrc marks images whose declared content type is a legacy
	// embedded-object metafile (EMF/WMF). They carry no visual bitmap and are
	// replaced with a glyph before sanitization.
	embeddedObjectSrc  = "embedded-object:placeholder"
	embeddedObjectIcon = "\U0001F4CE" // 📎
)

var reEmbeddedObjectImg = regexp.MustCompile(`<img[^>]*` + regexp.QuoteMeta(embeddedObjectSrc) + `[^>]*/?>`)

// ImageConverter turns one embedded image into an <img> src value. Returning
// ok=false omits the image.
type ImageConverter func(contentType string, data []byte) (src string, ok bool)

// WordDecoder converts word-processing document bytes to HTML, invoking
// convertImage for every embedded image.
type WordDecoder interface {
	DecodeHTML(data []byte, convertImage ImageConverter) (string, error)
}

// DocxConverter handles DOCX files.
type DocxConverter struct {
	docnorm *Docnorm
}

// NewDocxConverter creates a new DocxConverter.
func NewDocxConverter(d *Docnorm) *DocxConverter {
	return &DocxConverter{docnorm: d}
}

func (c *DocxConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".docx" {
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
}

func (c *DocxConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read DOCX: %w", err)
	}

	decoder := c.decoder()
	htmlStr, err := decoder.DecodeHTML(data, inlineImageConverter)
	if err != nil {
		return nil, fmt.Errorf("decode DOCX: %w", err)
	}

	// Legacy embedded objects first: the glyph must survive sanitization.
	htmlStr = reEmbeddedObjectImg.ReplaceAllString(htmlStr, embeddedObjectIcon)

	htmlStr, err = sanitizeHTML(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("sanitize DOCX HTML: %w", err)
	}

	var diag Diagnostics
	htmlStr, err = filterUnsupportedImages(htmlStr, &diag)
	if err != nil {
		return nil, fmt.Errorf("filter DOCX images: %w", err)
	}

	md, err := htmlToMarkdown(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("convert DOCX HTML to markdown: %w", err)
	}

	return &DocumentConverterResult{
		Markdown:    collapseBlankLines(md),
		Title:       extractHTMLTitle(htmlStr),
		Diagnostics: diag,
	}, nil
}

func (c *DocxConverter) decoder() WordDecoder {
	if c.docnorm != nil && c.docnorm.wordDecoder != nil {
		return c.docnorm.wordDecoder
	}
	return &OOXMLWordDecoder{}
}

// inlineImageConverter is the default image callback: metafile embedded
// objects become the placeholder marker, everything else an inline data URI
// labeled with its declared content type. Format enforcement happens later
// against the decoded payload.
func inlineImageConverter(contentType string, data []byte) (string, bool) {
	switch contentType {
	case "image/x-emf", "image/x-wmf":
		return embeddedObjectSrc, true
	}
	b64 := base64.StdEncoding.EncodeToString(data)
	return "data:" + contentType + ";base64," + b64, true
}
