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

package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	docnorm "github.com/nicholasgasior/docnorm-go"
)

var version = "dev"

func main() {
	var (
		output      string
		extension   string
		mimeType    string
		charset     string
		imagesDir   string
		jsonOutput  bool
		showVersion bool
	)

	flag.StringVar(&output, "o", "", "Output file (default: stdout)")
	flag.StringVar(&output, "output", "", "Output file (default: stdout)")
	flag.StringVar(&extension, "x", "", "File extension hint (for stdin input)")
	flag.StringVar(&extension, "extension", "", "File extension hint (for stdin input)")
	flag.StringVar(&mimeType, "m", "", "MIME type hint")
	flag.StringVar(&mimeType, "mime-type", "", "MIME type hint")
	flag.StringVar(&charset, "c", "", "Charset hint")
	flag.StringVar(&charset, "charset", "", "Charset hint")
	flag.StringVar(&imagesDir, "images", "", "Write extracted images to this directory")
	flag.BoolVar(&jsonOutput, "json", false, "Emit JSON with markdown and image registry")
	flag.BoolVar(&showVersion, "v", false, "Show version")
	flag.BoolVar(&showVersion, "version", false, "Show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docnorm [flags] [source]\n\n")
		fmt.Fprintf(os.Stderr, "Normalize documents to Markdown.\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  source    File path to convert (reads stdin if omitted)\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("docnorm %s\n", version)
		os.Exit(0)
	}

	// Normalize extension
	if extension != "" {
		extension = strings.ToLower(extension)
		if !strings.HasPrefix(extension, ".") {
			extension = "." + extension
		}
	}

	d := docnorm.New()

	var result *docnorm.ConversionResult
	var err error

	args := flag.Args()

	if len(args) == 0 {
		// Read from stdin
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", readErr)
			os.Exit(1)
		}

		info := docnorm.StreamInfo{
			Extension: extension,
			MIMEType:  mimeType,
			Charset:   charset,
		}
		if info.MIMEType == "" && info.Extension != "" {
			info.MIMEType = mimeFromExt(info.Extension)
		}

		result, err = d.ConvertReader(newBytesReadSeeker(data), info)
	} else {
		result, err = d.ConvertFile(args[0])
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if imagesDir != "" {
		if writeErr := writeImages(imagesDir, result.Images); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Error writing images: %v\n", writeErr)
			os.Exit(1)
		}
	}

	var out []byte
	if jsonOutput {
		envelope := struct {
			Markdown string            `json:"markdown"`
			Images   map[string]string `json:"images"`
		}{
			Markdown: result.Markdown,
			Images:   result.Images,
		}
		out, err = json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		out = []byte(result.Markdown)
	}

	if output != "" {
		dir := filepath.Dir(output)
		if dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		if writeErr := os.WriteFile(output, append(out, '\n'), 0o644); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", writeErr)
			os.Exit(1)
		}
	} else {
		fmt.Print(string(out))
		fmt.Println()
	}
}

// writeImages materializes the image registry as files under dir.
func writeImages(dir string, images map[string]string) error {
	if len(images) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, dataURI := range images {
		payload := dataURI
		if idx := strings.Index(payload, ";base64,"); idx >= 0 {
			payload = payload[idx+len(";base64,"):]
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, filepath.Base(name)), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newBytesReadSeeker(data []byte) io.ReadSeeker {
	return strings.NewReader(string(data))
}

// mimeFromExt returns a MIME type for the supported extensions (CLI use only).
func mimeFromExt(ext string) string {
	m := map[string]string{
		".pdf":      "application/pdf",
		".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		".ppt":      "application/vnd.ms-powerpoint",
		".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		".xlsm":     "application/vnd.ms-excel.sheet.macroenabled.12",
		".xls":      "application/vnd.ms-excel",
		".md":       "text/markdown",
		".markdown": "text/markdown",
	}
	if v, ok := m[ext]; ok {
		return v
	}
	return ""
}
