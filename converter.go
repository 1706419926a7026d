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

import "io"

// StreamInfo holds metadata about the input being converted.
type StreamInfo struct {
	MIMEType  string
	Extension string
	Charset   string
	Filename  string
	LocalPath string
}

// Diagnostics records recoverable image-level events that happened during a
// conversion. Image failures never abort a document; they are counted here so
// callers and tests can assert on them without parsing log output.
type Diagnostics struct {
	// SkippedImages counts images dropped because their decoded format is
	// outside the png/jpg/jpeg allow-list or their payload was unreadable.
	SkippedImages int
	// ImageFallbacks counts inline images whose payload could not be
	// re-encoded as PNG and was kept verbatim under a .png name.
	ImageFallbacks int
}

// DocumentConverterResult holds the output of a single format adapter.
// Markdown still carries inline base64 images at this stage; the engine's
// image rewriter moves them out of band afterwards.
type DocumentConverterResult struct {
	Markdown    string
	Title       string
	Diagnostics Diagnostics
}

// ConversionResult is the final engine output: markdown with every inline
// image replaced by a "<token>.png" reference, plus the registry mapping each
// referenced filename to its PNG data URI.
type ConversionResult struct {
	Markdown    string
	Title       string
	Images      map[string]string
	Diagnostics Diagnostics
}

// DocumentConverter is the interface all format converters implement.
type DocumentConverter interface {
	// Accepts returns true if this converter can handle the given input.
	// It MUST NOT change the read position of reader.
	Accepts(info StreamInfo) bool

	// Convert performs the actual document-to-markdown conversion.
	Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error)
}
