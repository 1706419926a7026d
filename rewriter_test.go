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
	"image/png"
	"regexp"
	"strings"
	"testing"
)

var reImageRef = regexp.MustCompile(`!\[([^\]]*)\]\(([0-9a-f]{16}\.png)\)`)

const pngDataURIPrefix = "data:image/png;base64,"

// registryPNG decodes a registry value and parses it as PNG.
func registryPNG(t *testing.T, dataURI string) image.Image {
	t.Helper()
	if !strings.HasPrefix(dataURI, pngDataURIPrefix) {
		t.Fatalf("registry value does not carry a PNG data URI: %q", truncate(dataURI, 60))
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, pngDataURIPrefix))
	if err != nil {
		t.Fatalf("registry payload is not valid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("registry payload is not a valid PNG: %v", err)
	}
	return img
}

func TestRewriteImagesPNG(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(makeTestPNG(t))
	md := "before\n\n![chart](data:image/png;base64," + payload + ")\n\nafter"

	out, images, stats := rewriteImages(md)

	m := reImageRef.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no token reference in output:\n%s", truncate(out, 200))
	}
	if m[1] != "chart" {
		t.Errorf("alt text = %q, want %q", m[1], "chart")
	}
	if strings.Contains(out, "base64") {
		t.Errorf("inline payload survived rewriting:\n%s", truncate(out, 200))
	}
	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Errorf("surrounding text lost:\n%s", truncate(out, 200))
	}

	if len(images) != 1 {
		t.Fatalf("registry has %d entries, want 1", len(images))
	}
	dataURI, ok := images[m[2]]
	if !ok {
		t.Fatalf("referenced file %q missing from registry (keys: %v)", m[2], registryKeys(images))
	}
	registryPNG(t, dataURI)

	if stats.rewritten != 1 || stats.fallbacks != 0 {
		t.Errorf("stats = %+v, want rewritten=1 fallbacks=0", stats)
	}
}

func TestRewriteImagesJPEGBecomesPNG(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(makeTestJPEG(t))
	md := "![photo](data:image/jpeg;base64," + payload + ")"

	out, images, stats := rewriteImages(md)

	m := reImageRef.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no token reference in output: %q", truncate(out, 200))
	}
	registryPNG(t, images[m[2]])

	if stats.rewritten != 1 {
		t.Errorf("stats = %+v, want rewritten=1", stats)
	}
}

func TestRewriteImagesFlattensAlpha(t *testing.T) {
	// A fully transparent 1x1 PNG must come out opaque white.
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	payload := base64.StdEncoding.EncodeToString(buf.Bytes())

	out, images, _ := rewriteImages("![t](data:image/png;base64," + payload + ")")

	m := reImageRef.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no token reference in output: %q", out)
	}
	flat := registryPNG(t, images[m[2]])

	r, g, b, a := flat.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Errorf("transparent pixel flattened to (%d, %d, %d, %d), want opaque white", r, g, b, a)
	}
}

func TestRewriteImagesFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"corrupt base64", "!!!not-base64!!!"},
		{"valid base64 but not an image", base64.StdEncoding.EncodeToString([]byte("hello"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := "![x](data:image/png;base64," + tt.payload + ")"
			out, images, stats := rewriteImages(md)

			m := reImageRef.FindStringSubmatch(out)
			if m == nil {
				t.Fatalf("fallback image lost its reference: %q", out)
			}
			// The payload is kept verbatim under the .png name.
			want := pngDataURIPrefix + tt.payload
			if images[m[2]] != want {
				t.Errorf("registry value = %q, want verbatim payload", truncate(images[m[2]], 60))
			}
			if stats.fallbacks != 1 || stats.rewritten != 0 {
				t.Errorf("stats = %+v, want fallbacks=1 rewritten=0", stats)
			}
		})
	}
}

func TestRewriteImagesMultiple(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(makeTestPNG(t))
	inline := "![a](data:image/png;base64," + payload + ")"
	md := inline + "\n\n" + inline

	out, images, _ := rewriteImages(md)

	refs := reImageRef.FindAllStringSubmatch(out, -1)
	if len(refs) != 2 {
		t.Fatalf("got %d token references, want 2", len(refs))
	}
	if refs[0][2] == refs[1][2] {
		t.Errorf("both images share token %q", refs[0][2])
	}
	if len(images) != 2 {
		t.Errorf("registry has %d entries, want 2", len(images))
	}
}

func TestRewriteImagesNoImages(t *testing.T) {
	md := "# Title\n\nplain text, a [link](https://example.com), no images"
	out, images, stats := rewriteImages(md)
	if out != md {
		t.Errorf("markdown changed: %q", out)
	}
	if len(images) != 0 {
		t.Errorf("registry has %d entries, want 0", len(images))
	}
	if stats.rewritten != 0 || stats.fallbacks != 0 {
		t.Errorf("stats = %+v, want zero", stats)
	}
}

func registryKeys(images map[string]string) []string {
	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	return keys
}
