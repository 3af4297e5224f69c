package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var ErrExportGenerateFail = errors.New("failed to generate the spreadsheet")

// sheet is one worksheet of an export: a merged title row, a header row, then data rows.
type sheet struct {
	name    string
	title   string
	headers []string
	widths  []float64
	rows    [][]interface{}
}

// renderWorkbook writes the sheets into an xlsx workbook.
func renderWorkbook(sheets ...sheet) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, err
		}

		last := colName(len(sh.headers) - 1)
		for j, w := range sh.widths {
			c := colName(j)
			_ = f.SetColWidth(sh.name, c, c, w)
		}

		_ = f.SetCellValue(sh.name, "A1", sh.title)
		if len(sh.headers) > 1 {
			_ = f.MergeCell(sh.name, "A1", cell(last, 1))
		}
		_ = f.SetCellStyle(sh.name, "A1", "A1", titleStyle)

		for j, h := range sh.headers {
			_ = f.SetCellValue(sh.name, cell(colName(j), 2), h)
		}
		_ = f.SetCellStyle(sh.name, "A2", cell(last, 2), headerStyle)

		for r, row := range sh.rows {
			if err := f.SetSheetRow(sh.name, cell("A", r+3), &row); err != nil {
				return nil, err
			}
		}
		_ = f.SetPanes(sh.name, &excelize.Panes{Freeze: true, YSplit: 2, TopLeftCell: "A3", ActivePane: "bottomLeft"})
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
