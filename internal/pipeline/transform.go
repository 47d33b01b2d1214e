package pipeline

import (
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/pkg/utils"
)

// ------------------- Coercion -------------------

// CoerceRows turns raw CSV rows into typed records.
//
// Every column is kept as normalized text. Declared number columns also get a
// numeric value (invalid → 0) and the schema date column sets Record.Date;
// a row whose date does not parse stays in the table as undated.
func CoerceRows(headers []string, rows [][]string, schema model.Schema) []model.Record {
	numberCols := make(map[string]bool)
	monthFirst := false
	for _, c := range schema.Columns {
		switch c.Type {
		case model.ColumnNumber:
			numberCols[c.Name] = true
		case model.ColumnDate:
			if c.Name == schema.DateColumn && c.DateOrder == model.DateOrderMDY {
				monthFirst = true
			}
		}
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		rec := model.Record{
			Values:  make(map[string]string, len(headers)),
			Numbers: make(map[string]float64, len(numberCols)),
		}
		for i, h := range headers {
			if h == "" || i >= len(row) {
				continue
			}
			raw := row[i]
			if numberCols[h] {
				n, _ := utils.ParseNumber(raw)
				rec.Numbers[h] = n
			}
			if h == schema.DateColumn {
				rec.Date, rec.Dated = utils.ParseDate(raw, monthFirst)
			}
			rec.Values[h] = utils.NormalizeText(raw)
		}
		records = append(records, rec)
	}
	return records
}
