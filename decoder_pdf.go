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
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MutoolDecoder renders a PDF to HTML by invoking the mutool binary. Image
// content is preserved so the downstream pipeline can filter and inline it.
type MutoolDecoder struct {
	// Binary overrides the executable name. Empty means "mutool" from PATH.
	Binary string
}

func (d *MutoolDecoder) DecodeHTML(inputPath, outputDir string) (string, error) {
	binary := d.Binary
	if binary == "" {
		binary = "mutool"
	}

	outPath := filepath.Join(outputDir, "output.html")

	cmd := exec.Command(binary, "convert", "-F", "html", "-O", "preserve-images", "-o", outPath, inputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("mutool not found in PATH, install mupdf-tools: %w", err)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("mutool convert: %w: %s", err, msg)
		}
		return "", fmt.Errorf("mutool convert: %w", err)
	}

	return outPath, nil
}

// TextPDFDecoder extracts page text in-process and emits minimal HTML. It
// produces no images and serves environments where mutool is unavailable.
type TextPDFDecoder struct{}

func (d *TextPDFDecoder) DecodeHTML(inputPath, outputDir string) (string, error) {
	f, r, err := pdf.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	var htmlBuf strings.Builder
	htmlBuf.WriteString("<html><body>\n")

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, line := range pageTextLines(page) {
			htmlBuf.WriteString("<p>")
			htmlBuf.WriteString(escapeHTMLText(line))
			htmlBuf.WriteString("</p>\n")
		}
	}

	htmlBuf.WriteString("</body></html>\n")

	outPath := filepath.Join(outputDir, "output.html")
	if err := os.WriteFile(outPath, []byte(htmlBuf.String()), 0o600); err != nil {
		return "", fmt.Errorf("write HTML: %w", err)
	}
	return outPath, nil
}

// pageTextLines extracts text rows from a page. Empty strings between words
// mark word boundaries in the row content.
func pageTextLines(page pdf.Page) []string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}

	var lines []string
	for _, row := range rows {
		var lineText strings.Builder
		prevWasEmpty := false
		for _, word := range row.Content {
			s := word.S
			if s == "" {
				prevWasEmpty = true
				continue
			}
			if lineText.Len() > 0 && prevWasEmpty && !strings.HasSuffix(lineText.String(), " ") {
				lineText.WriteString(" ")
			}
			lineText.WriteString(s)
			prevWasEmpty = false
		}
		if text := strings.TrimSpace(lineText.String()); text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}
