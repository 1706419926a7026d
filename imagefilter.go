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
	"image"
	"strings"

	// Register decoders so classifyImage can name the true format of a
	// payload. GIF/BMP/TIFF/WebP are recognized and then rejected by the
	// allow-list; anything else fails to decode and is rejected too.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
)

// supportedImageFormats is the allow-list for declared image format tokens,
// as they appear in data URI MIME labels.
var supportedImageFormats = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// isSupportedImageFormat reports whether a declared format token (e.g. the
// "bmp" in data:image/bmp) is on the allow-list.
func isSupportedImageFormat(format string) bool {
	return supportedImageFormats[strings.ToLower(format)]
}

// classifyImage decodes the image header to determine the payload's true
// format, ignoring any claimed extension or MIME type, and accepts only
// png/jpg/jpeg. It returns the lower-cased format name and whether the image
// is allowed. Vector and legacy formats (EMF, WMF, ...) fail to decode and
// are rejected. Rejection is non-fatal: callers skip the image and continue.
func classifyImage(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	format = strings.ToLower(format)
	return format, supportedImageFormats[format]
}

// newImageID returns a short random identifier for inline image alt text.
func newImageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// newImageToken returns the random identifier used for registry filenames,
// unique per response.
func newImageToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
