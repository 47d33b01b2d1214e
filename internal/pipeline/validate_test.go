package pipeline

import (
	"errors"
	"go-prod-dashboard/internal/model"
	"reflect"
	"strings"
	"testing"
)

func TestMissingColumns(t *testing.T) {
	table := tableOf([]string{"date", "MC", "status"})
	spec := model.GroupSpec{
		Keys:     []string{model.PeriodKey, "MC"},
		Measures: []model.Measure{{Op: OpCount}, {Op: OpSum, Column: "downtime"}},
		Where:    map[string][]string{"status": {"SHORT"}},
	}

	cols := GroupColumns(spec, "date")
	if !reflect.DeepEqual(cols, []string{"date", "MC", "downtime", "status"}) {
		t.Fatalf("GroupColumns = %v", cols)
	}
	if got := MissingColumns(table, cols); !reflect.DeepEqual(got, []string{"downtime"}) {
		t.Fatalf("MissingColumns = %v", got)
	}
	if got := MissingColumns(table, KPIColumns(model.KPI{Op: OpCount})); len(got) != 0 {
		t.Fatalf("count KPI needs no columns, got %v", got)
	}
}

func TestValidateDashboard(t *testing.T) {
	valid := runnerDashboard()
	if err := ValidateDashboard(valid); err != nil {
		t.Fatalf("valid dashboard rejected: %v", err)
	}

	bad := valid
	bad.Source = model.Source{}
	bad.Widgets = []model.Widget{
		{ID: "w1", Kind: "radar", Group: model.GroupSpec{Keys: []string{"MC"}, Measures: []model.Measure{{Op: "median"}}}},
		{ID: "w2", Kind: model.ChartStackedBar, Group: model.GroupSpec{Keys: []string{"MC"}, Measures: []model.Measure{{Op: OpCount}}}},
		{ID: "w3", Kind: model.ChartBar, LabelMeasure: "stops", Group: model.GroupSpec{Keys: []string{"MC"}, Measures: []model.Measure{{Op: OpCount}}}},
	}
	bad.KPIs = []model.KPI{{ID: "k1", Op: OpSum}}

	err := ValidateDashboard(bad)
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource in %v", err)
	}
	for _, want := range []string{"radar", "median", "two group keys", "label measure \"stops\"", "k1"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err, want)
		}
	}
}
