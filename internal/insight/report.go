package insight

import "math"

const PreviewRows = 5

// Report summarizes one dataset. Optional fields are omitted when their column is absent.
type Report struct {
	TotalRows                 int                      `json:"total_rows"`
	Columns                   []string                 `json:"columns"`
	Preview                   []map[string]interface{} `json:"preview"`
	UploadedBy                string                   `json:"uploaded_by"`
	EmployeeCountByDepartment map[string]int           `json:"employee_count_by_department,omitempty"`
	AverageSalary             *float64                 `json:"average_salary,omitempty"`
	AttritionRatePercent      *float64                 `json:"attrition_rate_percent,omitempty"`
}

type optionalField struct {
	column string
	apply  func(r *Report, c Column)
}

var optionalFields = []optionalField{
	{column: "department", apply: applyDepartment},
	{column: "salary", apply: applySalary},
	{column: "attrition", apply: applyAttrition},
}

func Compute(t *Table, uploadedBy string) *Report {
	r := &Report{
		TotalRows:  t.Len(),
		Columns:    t.Columns(),
		Preview:    make([]map[string]interface{}, 0, PreviewRows),
		UploadedBy: uploadedBy,
	}
	head := t.Head(PreviewRows)
	for i := 0; i < head.Len(); i++ {
		r.Preview = append(r.Preview, head.Record(i))
	}
	for _, f := range optionalFields {
		col, ok := t.Column(f.column)
		if !ok {
			continue
		}
		f.apply(r, col)
	}
	return r
}

func applyDepartment(r *Report, c Column) {
	counts := make(map[string]int)
	for _, v := range c.Strings() {
		counts[v]++
	}
	r.EmployeeCountByDepartment = counts
}

func applySalary(r *Report, c Column) {
	values, ok := c.Floats()
	if !ok || len(values) == 0 {
		return
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := round2(sum / float64(len(values)))
	r.AverageSalary = &avg
}

func applyAttrition(r *Report, c Column) {
	rate := 0.0
	if c.Len() > 0 {
		yes := 0
		for _, v := range c.Lower() {
			if v == "yes" {
				yes++
			}
		}
		rate = round2(float64(yes) / float64(c.Len()) * 100)
	}
	r.AttritionRatePercent = &rate
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
