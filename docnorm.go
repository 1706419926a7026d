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

// Package docnorm normalizes heterogeneous office documents (Word,
// spreadsheets, presentations, PDF, Markdown) into a single canonical
// Markdown representation with out-of-band image storage: the returned
// markdown references images as "<token>.png" and a registry maps each
// token to its PNG data URI.
package docnorm

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// PrioritySpecific is for format-specific converters (PDF, DOCX, etc.).
	PrioritySpecific = 0.0
	// PriorityGeneric is for fallback converters.
	PriorityGeneric = 10.0
)

type registeredConverter struct {
	converter DocumentConverter
	priority  float64
	name      string
}

// Docnorm is the main document normalization engine. Each conversion is a
// self-contained synchronous computation; a single instance is safe to share
// across goroutines.
type Docnorm struct {
	converters  []registeredConverter
	logger      *slog.Logger
	wordDecoder WordDecoder
	presDecoder PresentationDecoder
	pdfDecoder  PDFDecoder
}

// New creates a new Docnorm instance with the given options.
func New(opts ...Option) *Docnorm {
	d := &Docnorm{}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.wordDecoder == nil {
		d.wordDecoder = &OOXMLWordDecoder{}
	}
	if d.presDecoder == nil {
		d.presDecoder = &OOXMLPresentationDecoder{}
	}
	if d.pdfDecoder == nil {
		d.pdfDecoder = &MutoolDecoder{}
	}
	d.enableBuiltins()
	return d
}

// RegisterConverter adds a custom converter with the given priority.
// Lower priority values are tried first.
func (d *Docnorm) RegisterConverter(name string, c DocumentConverter, priority float64) {
	d.converters = append(d.converters, registeredConverter{
		converter: c,
		priority:  priority,
		name:      name,
	})
	sort.SliceStable(d.converters, func(i, j int) bool {
		return d.converters[i].priority < d.converters[j].priority
	})
}

// ConvertFile converts a local file to markdown plus its image registry.
func (d *Docnorm) ConvertFile(path string) (*ConversionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	filename := filepath.Base(path)

	info := StreamInfo{
		Extension: ext,
		Filename:  filename,
		LocalPath: path,
	}

	info.MIMEType = detectMIMEType(f, ext)

	// Reset after MIME detection
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	return d.ConvertReader(f, info)
}

// ConvertReader converts a stream to markdown using the provided StreamInfo.
// The filename/extension in info drives routing; unrecognized extensions fail
// with *UnsupportedFormatError.
func (d *Docnorm) ConvertReader(r io.ReadSeeker, info StreamInfo) (*ConversionResult, error) {
	return d.convert(r, info)
}

// convert is the internal dispatch method.
func (d *Docnorm) convert(r io.ReadSeeker, info StreamInfo) (*ConversionResult, error) {
	var failedAttempts []FailedConversionAttempt

	for _, rc := range d.converters {
		if !rc.converter.Accepts(info) {
			continue
		}

		// Reset reader position before conversion
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}

		result, err := rc.converter.Convert(r, info)
		if err != nil {
			d.logger.Debug("converter failed", "converter", rc.name, "error", err)
			failedAttempts = append(failedAttempts, FailedConversionAttempt{
				Converter: rc.name,
				Err:       err,
			})
			continue
		}

		return d.finishConversion(result), nil
	}

	if len(failedAttempts) > 0 {
		return nil, &ConversionError{Attempts: failedAttempts}
	}

	return nil, &UnsupportedFormatError{
		Extension: info.Extension,
		MIMEType:  info.MIMEType,
	}
}

// finishConversion normalizes adapter output and moves inline base64 images
// out of band, producing the final markdown/registry pair.
func (d *Docnorm) finishConversion(result *DocumentConverterResult) *ConversionResult {
	md := normalizeOutput(result.Markdown)
	md, images, stats := rewriteImages(md)

	diag := result.Diagnostics
	diag.ImageFallbacks += stats.fallbacks

	return &ConversionResult{
		Markdown:    md,
		Title:       result.Title,
		Images:      images,
		Diagnostics: diag,
	}
}

// enableBuiltins registers all built-in converters.
func (d *Docnorm) enableBuiltins() {
	d.RegisterConverter("docx", NewDocxConverter(d), PrioritySpecific)
	d.RegisterConverter("xlsx", NewXlsxConverter(), PrioritySpecific)
	d.RegisterConverter("xls", NewXlsConverter(), PrioritySpecific)
	d.RegisterConverter("pptx", NewPptxConverter(d), PrioritySpecific)
	d.RegisterConverter("pdf", NewPdfConverter(d), PrioritySpecific)
	d.RegisterConverter("markdown", NewMarkdownConverter(), PriorityGeneric)
}

// supportedExtensionMap maps recognized extensions to their MIME types.
var supportedExtensionMap = map[string]string{
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xlsm":     "application/vnd.ms-excel.sheet.macroEnabled.12",
	".xls":      "application/vnd.ms-excel",
	".pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".ppt":      "application/vnd.ms-powerpoint",
	".pdf":      "application/pdf",
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// SupportedExtensions returns the recognized extension set, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensionMap))
	for ext := range supportedExtensionMap {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// detectMIMEType detects the MIME type from content and extension.
func detectMIMEType(r io.ReadSeeker, ext string) string {
	// Try content-based detection first
	mtype, err := mimetype.DetectReader(r)
	if err == nil && mtype.String() != "application/octet-stream" {
		return mtype.String()
	}

	// Fall back to extension-based detection
	if m, ok := supportedExtensionMap[ext]; ok {
		return m
	}
	return "application/octet-stream"
}
