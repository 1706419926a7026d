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
	"encoding/base64"
	"image"
	"image/draw"
	"image/png"
	"regexp"
)

// reInlineImage matches markdown images carrying an inline base64 payload:
// ![alt](data:image/<format>;base64,<payload>)
var reInlineImage = regexp.MustCompile(`!\[([^\]]*)\]\(data:image/([a-zA-Z0-9.+-]+);base64,([^)\s]*)\)`)

type rewriteStats struct {
	rewritten int
	fallbacks int
}

// rewriteImages replaces every inline base64 image in markdown with a
// generated "<token>.png" reference and returns the registry mapping each
// filename to its PNG data URI. All payloads are re-encoded as PNG with
// transparency flattened onto white; payloads that cannot be decoded or
// re-encoded are kept verbatim under the .png name so a corrupt image never
// aborts the document. This is the only place tokens are allocated and the
// registry is populated.
func rewriteImages(markdown string) (string, map[string]string, rewriteStats) {
	images := make(map[string]string)
	var stats rewriteStats

	rewritten := reInlineImage.ReplaceAllStringFunc(markdown, func(match string) string {
		m := reInlineImage.FindStringSubmatch(match)
		alt, payload := m[1], m[3]

		var pngBase64 string
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Truncated/corrupt base64: keep the payload unmodified.
			pngBase64 = payload
			stats.fallbacks++
		} else if encoded, ok := reencodePNG(raw); ok {
			pngBase64 = base64.StdEncoding.EncodeToString(encoded)
			stats.rewritten++
		} else {
			pngBase64 = payload
			stats.fallbacks++
		}

		filename := newImageToken() + ".png"
		images[filename] = "data:image/png;base64," + pngBase64

		return "![" + alt + "](" + filename + ")"
	})

	return rewritten, images, stats
}

// reencodePNG decodes raw image bytes and re-encodes them as PNG. Images with
// an alpha channel or transparent palette are flattened onto an opaque white
// background; other color models are converted to RGB by the same draw pass.
func reencodePNG(raw []byte) ([]byte, bool) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}

	bounds := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
