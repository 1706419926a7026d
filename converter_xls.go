package docnorm

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// XlsConverter handles legacy XLS files. Renamed modern workbooks take the
// OOXML path; genuine BIFF files go through a text-only reader; anything the
// readers cannot decode fails with an advisory error rather than degrading
// silently.
type XlsConverter struct{}

// NewXlsConverter creates a new XlsConverter.
func NewXlsConverter() *XlsConverter {
	return &XlsConverter{}
}

func (c *XlsConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".xls" {
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return mime == "application/vnd.ms-excel"
}

func (c *XlsConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*DocumentConverterResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read XLS: %w", err)
	}

	// Some .xls uploads are renamed OOXML workbooks.
	if f, err := excelize.OpenReader(bytes.NewReader(data)); err == nil {
		defer f.Close()
		return convertWorkbook(f)
	}

	// The BIFF reader requires a file path.
	tmpFile, err := os.CreateTemp("", "docnorm-*.xls")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmpFile.Close()

	wb, err := xls.Open(tmpPath, "utf-8")
	if err != nil {
		return nil, &LegacyFormatError{
			Extension: ".xls",
			Advice:    "re-export the workbook as .xlsx",
			Err:       err,
		}
	}

	var md strings.Builder

	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		sheetName := sheet.Name
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}
		fmt.Fprintf(&md, "## Sheet: %s\n\n", sheetName)

		grid, _, _ := trimGrid(xlsSheetRows(sheet))
		if grid == nil {
			md.WriteString(emptySheetMarker + "\n\n")
			continue
		}

		// BIFF files expose no embedded pictures; no overlay.
		md.WriteString(renderMarkdownTable(grid, nil))
		md.WriteString("\n")
	}

	return &DocumentConverterResult{
		Markdown: md.String(),
	}, nil
}

func xlsSheetRows(sheet *xls.WorkSheet) [][]string {
	var rows [][]string
	maxRow := int(sheet.MaxRow)
	for rowIdx := 0; rowIdx <= maxRow; rowIdx++ {
		row := sheet.Row(rowIdx)
		if row == nil {
			rows = append(rows, nil)
			continue
		}

		var cells []string
		for colIdx := 0; colIdx < row.LastCol(); colIdx++ {
			cells = append(cells, row.Col(colIdx))
		}
		rows = append(rows, cells)
	}
	return rows
}
