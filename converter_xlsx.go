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
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XlsxConverter handles XLSX and XLSM files.
type XlsxConverter struct{}

// NewXlsxConverter creates a new XlsxConverter.
func NewXlsxConverter() *XlsxConverter {
	return &XlsxConverter{}
}

func (c *XlsxConverter) Accepts(info StreamInfo) bool {
	switch info.Extension {
	case ".xlsx", ".xlsm":
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet") ||
		strings.HasPrefix(mime, "application/vnd.ms-excel.sheet.macroenabled")
}

func (c *XlsxConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return convertWorkbook(f)
}

// convertWorkbook renders every sheet of an open workbook as a markdown
// table under a sheet-name heading. Shared by the modern and legacy entry
// points.
func convertWorkbook(f *excelize.File) (*DocumentConverterResult, error) {
	var md strings.Builder
	var diag Diagnostics

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		fmt.Fprintf(&md, "## Sheet: %s\n\n", sheet)

		grid, rowOff, colOff := trimGrid(rows)
		if grid == nil {
			md.WriteString(emptySheetMarker + "\n\n")
			continue
		}

		overlay := sheetImageOverlay(f, sheet, rowOff, colOff, len(grid), len(grid[0]), &diag)
		md.WriteString(renderMarkdownTable(grid, overlay))
		md.WriteString("\n")
	}

	return &DocumentConverterResult{
		Markdown:    md.String(),
		Diagnostics: diag,
	}, nil
}

// sheetImageOverlay collects the sheet's embedded pictures as inline image
// markdown, keyed by their anchor cell translated to grid coordinates.
// Pictures outside the effective range or failing the format allow-list are
// dropped.
func sheetImageOverlay(f *excelize.File, sheet string, rowOff, colOff, numRows, numCols int, diag *Diagnostics) map[gridPos]string {
	cells, err := f.GetPictureCells(sheet)
	if err != nil || len(cells) == 0 {
		return nil
	}

	overlay := make(map[gridPos]string)
	for _, cell := range cells {
		col, row, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			continue
		}
		// Anchors are 0-based; translate into the trimmed grid.
		pos := gridPos{row - 1 - rowOff, col - 1 - colOff}
		if pos.row < 0 || pos.row >= numRows || pos.col < 0 || pos.col >= numCols {
			continue
		}

		pics, err := f.GetPictures(sheet, cell)
		if err != nil {
			diag.SkippedImages++
			continue
		}
		for _, pic := range pics {
			format, ok := classifyImage(pic.File)
			if !ok {
				diag.SkippedImages++
				continue
			}
			b64 := base64.StdEncoding.EncodeToString(pic.File)
			snippet := fmt.Sprintf("![image-%s](data:image/%s;base64,%s)", newImageID(), format, b64)
			if existing, ok := overlay[pos]; ok {
				snippet = existing + " " + snippet
			}
			overlay[pos] = snippet
		}
	}
	return overlay
}
