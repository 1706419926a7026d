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
	"fmt"
	"io"
	"regexp"
	"strings"
)

// MarkdownConverter passes Markdown input through, keeping only inline
// base64 images whose declared format is on the allow-list.
type MarkdownConverter struct{}

// NewMarkdownConverter creates a new MarkdownConverter.
func NewMarkdownConverter() *MarkdownConverter {
	return &MarkdownConverter{}
}

func (c *MarkdownConverter) Accepts(info StreamInfo) bool {
	switch info.Extension {
	case ".md", ".markdown":
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "text/markdown") || strings.HasPrefix(mime, "application/markdown")
}

func (c *MarkdownConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	text := decodeText(data, info.Charset)

	var diag Diagnostics
	text = filterMarkdownImages(text, &diag)

	return &DocumentConverterResult{
		Markdown:    text,
		Diagnostics: diag,
	}, nil
}

// reMarkdownImage matches any markdown image reference: ![alt](src)
var reMarkdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// filterMarkdownImages drops images that are not base64 data URIs and base64
// images whose declared format is outside the allow-list. Kept references
// are passed through byte for byte.
func filterMarkdownImages(content string, diag *Diagnostics) string {
	return reMarkdownImage.ReplaceAllStringFunc(content, func(match string) string {
		src := reMarkdownImage.FindStringSubmatch(match)[2]

		if !strings.HasPrefix(src, "data:image/") {
			diag.SkippedImages++
			return ""
		}

		if m := reDataURIImage.FindStringSubmatch(src); m == nil || !isSupportedImageFormat(m[1]) {
			diag.SkippedImages++
			return ""
		}

		return match
	})
}
