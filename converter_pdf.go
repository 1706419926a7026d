package docnorm

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// PDFDecoder renders a PDF file to an HTML document on disk. Implementations
// may write auxiliary image files next to the returned HTML path.
type PDFDecoder interface {
	DecodeHTML(inputPath, outputDir string) (htmlPath string, err error)
}

// PdfConverter handles PDF files.
type PdfConverter struct {
	docnorm *Docnorm
}

// NewPdfConverter creates a new PdfConverter.
func NewPdfConverter(d *Docnorm) *PdfConverter {
	return &PdfConverter{docnorm: d}
}

func (c *PdfConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".pdf" {
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "application/pdf")
}

func (c *PdfConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read PDF: %w", err)
	}

	workDir, err := os.MkdirTemp("", "docnorm-pdf-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write PDF: %w", err)
	}

	htmlPath, err := c.decoder().DecodeHTML(inputPath, workDir)
	if err != nil {
		return nil, fmt.Errorf("decode PDF: %w", err)
	}

	htmlBytes, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("read decoded HTML: %w", err)
	}

	var diag Diagnostics

	htmlStr, err := inlineImageFiles(string(htmlBytes), filepath.Dir(htmlPath), &diag)
	if err != nil {
		return nil, fmt.Errorf("inline PDF images: %w", err)
	}

	sanitized, err := sanitizeHTML(htmlStr)
	if err != nil {
		return nil, fmt.Errorf("sanitize PDF HTML: %w", err)
	}

	filtered, err := filterUnsupportedImages(sanitized, &diag)
	if err != nil {
		return nil, fmt.Errorf("filter PDF images: %w", err)
	}

	markdown, err := htmlToMarkdown(filtered)
	if err != nil {
		return nil, fmt.Errorf("convert PDF HTML to markdown: %w", err)
	}

	return &DocumentConverterResult{
		Markdown:    collapseBlankLines(markdown),
		Diagnostics: diag,
	}, nil
}

func (c *PdfConverter) decoder() PDFDecoder {
	if c.docnorm != nil && c.docnorm.pdfDecoder != nil {
		return c.docnorm.pdfDecoder
	}
	return &MutoolDecoder{}
}

// inlineImageFiles replaces file-based img references with data URIs read
// from baseDir. Unreadable or escaping references are dropped.
func inlineImageFiles(htmlStr, baseDir string, diag *Diagnostics) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	inlineImageNodes(doc, baseDir, diag)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render HTML: %w", err)
	}
	return buf.String(), nil
}

func inlineImageNodes(n *html.Node, baseDir string, diag *Diagnostics) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && c.Data == "img" {
			src := getAttr(c, "src")
			if src != "" && !strings.HasPrefix(src, "data:") {
				if !inlineImageFile(c, baseDir, src) {
					n.RemoveChild(c)
					diag.SkippedImages++
					continue
				}
			}
		}
		inlineImageNodes(c, baseDir, diag)
	}
}

func inlineImageFile(img *html.Node, baseDir, src string) bool {
	full := filepath.Clean(filepath.Join(baseDir, filepath.FromSlash(src)))
	rel, err := filepath.Rel(baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	data, err := os.ReadFile(full)
	if err != nil || len(data) == 0 {
		return false
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(src)), ".")
	if ext == "jpg" {
		ext = "jpeg"
	}
	if ext == "" {
		return false
	}

	setAttr(img, "src", fmt.Sprintf("data:image/%s;base64,%s", ext, base64.StdEncoding.EncodeToString(data)))
	os.Remove(full)
	return true
}
