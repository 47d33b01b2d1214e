package config

import "go-prod-dashboard/internal/model"

// Column names shared by the corrugator sheets
const (
	colDate        = "วันที่"
	colMC          = "MC"
	colShift       = "กะ"
	colProdStatus  = "สถานะผลิต"
	colCustomer    = "ชื่อลูกค้า"
	colDetail      = "Detail"
	colRepair      = "สถานะซ่อมสรุป"
	colPDWWeight   = "น้ำหนักของเหลือ PDW"
	colAvgSpeed    = "AVG_Speed (M/min)"
	colStdSpeed    = "Standard Speed (M/min)"
	colFlute       = "ลอน"
	statusComplete = "ครบจำนวน"
	statusShort    = "ขาดจำนวน"

	colStation      = "Station"
	colMachine      = "เครื่องจักร"
	colTechType     = "ประเภทช่าง"
	colJobType      = "ประเภทงาน"
	colDowntime     = "เวลาหยุดเครื่อง Actual"
	colStopCount    = "จำนวนครั้งที่หยุด Actual"
	colPartQuantity = "จำนวน"

	corrugatorSheetID  = "1gW0lw9XS0JYST-P-ZrXoFq0k4n2ZlXu9hOf3A--JV9U"
	corrugatorGID      = "1799697899"
	maintenanceSheetID = "1tWy2VQSaDTqVB04w8KEKlK7RTIVPLdgnCmysPabFS0g"
)

var shortOnly = map[string][]string{colProdStatus: {statusShort}}

// DefaultDashboards returns the built-in dashboard definitions
func DefaultDashboards() []model.Dashboard {
	return []model.Dashboard{
		maintenanceDashboard(),
		shortageDashboard(),
		speedDashboard(),
	}
}

func maintenanceDashboard() model.Dashboard {
	return model.Dashboard{
		ID:    "maintenance",
		Title: "Maintenance Downtime",
		Source: model.Source{
			SheetID:   maintenanceSheetID,
			SheetName: "รายงาน ประจำวัน",
		},
		Schema: model.Schema{
			DateColumn: colDate,
			Columns: []model.Column{
				{Name: colDate, Type: model.ColumnDate},
				{Name: colDowntime, Type: model.ColumnNumber},
				{Name: colStopCount, Type: model.ColumnNumber},
				{Name: colPartQuantity, Type: model.ColumnNumber},
			},
		},
		Filters: []model.FilterDef{
			{Column: colMachine, Label: "Machine"},
			{Column: colStation},
			{Column: colTechType, Label: "Technician"},
			{Column: colJobType, Label: "Job type"},
		},
		DefaultPeriod: model.PeriodDaily,
		KPIs: []model.KPI{
			{ID: "downtime", Title: "Total downtime", Op: "sum", Column: colDowntime, Unit: "min"},
			{ID: "stops", Title: "Stop count", Op: "sum", Column: colStopCount},
			{ID: "top_station", Title: "Main problem station", Op: "top", GroupBy: colStation, Column: colDowntime},
		},
		Widgets: []model.Widget{
			{
				ID:    "pareto",
				Title: "Top 10 stations by downtime",
				Kind:  model.ChartHorizontalBar,
				Group: model.GroupSpec{
					Keys: []string{colStation},
					Measures: []model.Measure{
						{Name: "downtime", Op: "sum", Column: colDowntime},
						{Name: "stops", Op: "sum", Column: colStopCount},
					},
					SortBy:       "downtime",
					Descending:   true,
					TopN:         10,
					HighlightTop: 3,
					Order:        "asc",
				},
				Colors:       map[string]string{"Top 3": "#d62728", "Others": "#1f77b4"},
				XName:        "minutes",
				LabelMeasure: "stops",
				Units:        map[string]string{"downtime": "นาที", "stops": "ครั้ง"},
			},
			{
				ID:    "trend",
				Title: "Downtime and stops over time",
				Kind:  model.ChartLineSecondary,
				Group: model.GroupSpec{
					Keys: []string{model.PeriodKey},
					Measures: []model.Measure{
						{Name: "downtime", Op: "sum", Column: colDowntime},
						{Name: "stops", Op: "sum", Column: colStopCount},
					},
				},
			},
			{
				ID:    "job_types",
				Title: "Jobs by type",
				Kind:  model.ChartDonut,
				Group: model.GroupSpec{
					Keys:       []string{colJobType},
					Measures:   []model.Measure{{Name: "jobs", Op: "count"}},
					SortBy:     "jobs",
					Descending: true,
				},
			},
		},
		DisplayColumns: []string{
			colDate, colMachine, colStation, colTechType, colJobType,
			"ปัญหา ความขัดข้องที่เกิด", "สาเหตุที่ตรวจพบ", "การแก้ไข และป้องกัน",
			colDowntime, colStopCount, "รายการอะไหล่ที่เปลี่ยน", colPartQuantity,
		},
		CacheTTL: "5m",
	}
}

func shortageDashboard() model.Dashboard {
	return model.Dashboard{
		ID:    "shortage",
		Title: "Production Shortage",
		Source: model.Source{
			SheetID: corrugatorSheetID,
			GID:     corrugatorGID,
		},
		Schema: model.Schema{
			DateColumn: colDate,
			Columns: []model.Column{
				{Name: colDate, Type: model.ColumnDate, DateOrder: model.DateOrderDMY},
				{Name: colPDWWeight, Type: model.ColumnNumber},
				{Name: colAvgSpeed, Type: model.ColumnNumber},
				{Name: "จำนวนที่ลูกค้าต้องการ", Type: model.ColumnNumber},
				{Name: statusShort, Type: model.ColumnNumber},
			},
		},
		Filters: []model.FilterDef{
			{Column: colMC, Label: "Machine"},
			{Column: colShift, Label: "Shift"},
			{Column: colProdStatus, Label: "Status"},
			{Column: colCustomer, Label: "Customer"},
		},
		DefaultRangeDays: 7,
		DefaultPeriod:    model.PeriodDaily,
		KPIs: []model.KPI{
			{ID: "orders", Title: "ORDER TOTAL", Op: "count"},
			{ID: "complete", Title: "Complete", Op: "count", Where: map[string][]string{colProdStatus: {statusComplete}}},
			{ID: "short", Title: "Short", Op: "count", Where: shortOnly},
			{
				ID: "short_pct", Title: "% Short", Op: "percent", Where: shortOnly,
				Thresholds: &model.Thresholds{Warning: 15, Critical: 20},
			},
			{ID: "pdw_weight", Title: "PDW leftover weight", Op: "sum", Column: colPDWWeight, Where: shortOnly, Unit: "KG", Decimals: 2, InInsight: true},
			{ID: "main_cause", Title: "Main cause", Op: "top", GroupBy: colDetail, Where: shortOnly},
		},
		Widgets: []model.Widget{
			{
				ID:    "top_detail",
				Title: "Top 10 shortage causes (% of ORDER TOTAL)",
				Kind:  model.ChartHorizontalBar,
				Group: model.GroupSpec{
					Keys:       []string{colDetail},
					Measures:   []model.Measure{{Name: "orders", Op: "count"}},
					Where:      shortOnly,
					Percent:    &model.Percent{Measure: "orders", Base: "rows"},
					SortBy:     "orders",
					Descending: true,
					TopN:       10,
					Order:      "asc",
				},
			},
			{
				ID:    "status_share",
				Title: "Production status",
				Kind:  model.ChartDonut,
				Group: model.GroupSpec{
					Keys:     []string{colProdStatus},
					Measures: []model.Measure{{Name: "orders", Op: "count"}},
					KeyOrder: []string{statusComplete, statusShort},
				},
				Colors: map[string]string{statusComplete: "#2ca02c", statusShort: "#d62728"},
			},
			{
				ID:    "status_trend",
				Title: "Status share per period",
				Kind:  model.ChartStackedBar,
				Group: model.GroupSpec{
					Keys:     []string{model.PeriodKey, colProdStatus},
					Measures: []model.Measure{{Name: "orders", Op: "count"}},
					Percent:  &model.Percent{Measure: "orders", Within: []string{model.PeriodKey}},
					KeyOrder: []string{statusComplete, statusShort},
				},
				Value:  "percent",
				Colors: map[string]string{statusComplete: "#2ca02c", statusShort: "#d62728"},
				YName:  "%",
			},
			{
				ID:    "repair_status",
				Title: "Repair status of short orders",
				Kind:  model.ChartPie,
				Group: model.GroupSpec{
					Keys:       []string{colRepair},
					Measures:   []model.Measure{{Name: "orders", Op: "count"}},
					Where:      shortOnly,
					SortBy:     "orders",
					Descending: true,
				},
			},
		},
		DisplayColumns: []string{
			colDate, "ลำดับที่", colMC, colShift, "PDR No.", colCustomer,
			"M1", "M3", "M5", colFlute, "ความยาวทั้งหมด(เมตร)", "ความยาว/แผ่น(มม)", "T",
			colAvgSpeed, "Group ขาดจำนวน", "จำนวนที่ลูกค้าต้องการ", statusShort,
			"สถานะส่งงาน", colDetail, colRepair,
		},
		CacheTTL: "5m",
	}
}

func speedDashboard() model.Dashboard {
	return model.Dashboard{
		ID:    "speed",
		Title: "Corrugator Speed",
		Source: model.Source{
			SheetID: corrugatorSheetID,
			GID:     corrugatorGID,
		},
		Schema: model.Schema{
			DateColumn: colDate,
			Columns: []model.Column{
				{Name: colDate, Type: model.ColumnDate, DateOrder: model.DateOrderDMY},
				{Name: colAvgSpeed, Type: model.ColumnNumber},
				{Name: colStdSpeed, Type: model.ColumnNumber},
			},
		},
		Filters: []model.FilterDef{
			{Column: colMC, Label: "Machine"},
			{Column: colShift, Label: "Shift"},
			{Column: colFlute, Label: "Flute"},
		},
		DefaultRangeDays: 7,
		DefaultPeriod:    model.PeriodDaily,
		KPIs: []model.KPI{
			{ID: "orders", Title: "Orders", Op: "count"},
			{ID: "avg_speed", Title: "Average speed", Op: "mean", Column: colAvgSpeed, Unit: "m/min", Decimals: 1},
			{ID: "speed_vs_plan", Title: "Speed vs standard", Op: "mean", Column: colAvgSpeed, Plan: colStdSpeed, Unit: "m/min", Decimals: 1},
		},
		Widgets: []model.Widget{
			{
				ID:    "speed_by_mc",
				Title: "Average speed by machine",
				Kind:  model.ChartHorizontalBar,
				Group: model.GroupSpec{
					Keys:       []string{colMC},
					Measures:   []model.Measure{{Name: "avg_speed", Op: "mean", Column: colAvgSpeed}},
					SortBy:     "avg_speed",
					Descending: true,
					Order:      "asc",
				},
				XName: "m/min",
			},
			{
				ID:    "speed_trend",
				Title: "Speed and orders over time",
				Kind:  model.ChartLineSecondary,
				Group: model.GroupSpec{
					Keys: []string{model.PeriodKey},
					Measures: []model.Measure{
						{Name: "avg_speed", Op: "mean", Column: colAvgSpeed},
						{Name: "orders", Op: "count"},
					},
				},
			},
			{
				ID:    "speed_by_flute",
				Title: "Average speed by flute",
				Kind:  model.ChartBar,
				Group: model.GroupSpec{
					Keys:       []string{colFlute},
					Measures:   []model.Measure{{Name: "avg_speed", Op: "mean", Column: colAvgSpeed}},
					SortBy:     "avg_speed",
					Descending: true,
				},
			},
		},
		DisplayColumns: []string{
			colDate, colMC, colShift, "PDR No.", colCustomer, colFlute,
			"ความยาวทั้งหมด(เมตร)", colAvgSpeed, colStdSpeed,
		},
		CacheTTL: "5m",
	}
}
