package pipeline

import (
	"encoding/csv"
	"fmt"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/pkg/utils"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ContentType returns the MIME type of an export format
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ------------------- CSV -------------------

// WriteCSV writes the display table as UTF-8 CSV with a leading BOM
func WriteCSV(w io.Writer, table model.DisplayTable) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ------------------- Excel -------------------

// WriteXLSX writes a workbook with a "Data" sheet (the display table) and a
// "Summary" sheet (title, selection and KPI cards)
func WriteXLSX(w io.Writer, res *model.DashboardResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const dataSheet = "Data"
	const summarySheet = "Summary"
	f.SetSheetName("Sheet1", dataSheet)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
	if err != nil {
		return err
	}

	table := res.Table
	for i, col := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(dataSheet, cell, col)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(dataSheet, colName, colName, 18)
	}
	if len(table.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), 1)
		f.SetCellStyle(dataSheet, "A1", last, headerStyle)
	}

	for r, row := range table.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if c < len(table.Numeric) && table.Numeric[c] {
				if n, ok := utils.ParseNumber(v); ok {
					f.SetCellValue(dataSheet, cell, n)
					continue
				}
			}
			f.SetCellValue(dataSheet, cell, v)
		}
	}

	f.SetCellValue(summarySheet, "A1", res.Title)
	f.SetCellValue(summarySheet, "A2", fmt.Sprintf("%s - %s",
		res.Selection.Start.Format("02/01/2006"), res.Selection.End.Format("02/01/2006")))
	f.SetCellValue(summarySheet, "A3", fmt.Sprintf("%d of %d rows", res.FilteredRows, res.TotalRows))
	f.SetCellValue(summarySheet, "A5", "KPI")
	f.SetCellValue(summarySheet, "B5", "Value")
	f.SetCellValue(summarySheet, "C5", "vs Plan")
	f.SetCellStyle(summarySheet, "A5", "C5", headerStyle)
	f.SetColWidth(summarySheet, "A", "C", 28)
	for i, k := range res.KPIs {
		row := i + 6
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), k.Title)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), k.Text)
		f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), k.Delta)
	}

	_, err = f.WriteTo(w)
	return err
}

// Write dispatches on format
func Write(w io.Writer, format string, res *model.DashboardResult) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, res.Table)
	case FormatXLSX:
		return WriteXLSX(w, res)
	}
	return fmt.Errorf("unsupported export format: %s", format)
}

// ExportToFile writes the result to path, picking the format from its extension
func ExportToFile(path string, res *model.DashboardResult) model.ExportResult {
	result := model.ExportResult{
		Path:        path,
		RecordCount: len(res.Table.Rows),
		Timestamp:   time.Now().UTC(),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		result.Type = FormatCSV
	case ".xlsx":
		result.Type = FormatXLSX
	default:
		result.Error = fmt.Sprintf("unsupported file extension: %s", filepath.Ext(path))
		return result
	}

	file, err := os.Create(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create file: %v", err)
		return result
	}
	defer file.Close()

	if err := Write(file, result.Type, res); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	log.Info().Str("path", path).Int("rows", result.RecordCount).Msgf("💾 %s export done", strings.ToUpper(result.Type))
	return result
}
