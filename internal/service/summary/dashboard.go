// Package summary 由计算结果与表单值生成结果页与汇总页数据
package summary

import (
	"encoding/json"

	"github.com/JeeerryZ/simuladordre/internal/format"
	"github.com/JeeerryZ/simuladordre/internal/model"
)

// Card 一张已格式化的卡片
type Card struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Value string `json:"value"`
	Raw   any    `json:"raw"`
}

// CardGroup 卡片分组
type CardGroup struct {
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

// ReviewRow 汇总表一行
type ReviewRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Value string `json:"value"`
}

// Chart 图表序列
type Chart struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Labels []any  `json:"labels"`
	Values []any  `json:"values"`
}

// Dashboard 结果页 + 汇总页
type Dashboard struct {
	Groups   []CardGroup `json:"groups"`
	Review   []ReviewRow `json:"review"`
	Insights []Insight   `json:"insights"`
	Charts   []Chart     `json:"charts"`
}

// ChartTitles 图表标题
var ChartTitles = map[string]string{
	model.ChartUnitCostPerHousing:  "Custo unitário geral anual por UH (R$/UH)",
	model.ChartUnitCostPerResident: "Custo unitário geral anual por Habitante (R$/Hab)",
	model.ChartUnitCostPerTonne:    "Custo unitário geral anual por Tonelada (R$/Ton)",
}

// Build 生成看板
//
// 值为 0 或缺失的卡片不出现；汇总表先取表单值再取计算结果。
func Build(out *model.Output, formValues map[string]any) Dashboard {
	if out == nil {
		out = model.NewOutput()
	}
	out = withDerived(out)

	d := Dashboard{
		Groups:   make([]CardGroup, 0, len(format.Groups)),
		Review:   make([]ReviewRow, 0, len(format.ReviewFields)),
		Insights: Insights(out),
		Charts:   make([]Chart, 0, len(model.ChartKeys)),
	}

	for _, g := range format.Groups {
		group := CardGroup{Title: g.Title, Cards: []Card{}}
		for _, m := range g.Metrics {
			raw, _ := out.Get(m.Key)
			text, ok := format.Value(raw, m)
			if !ok {
				continue
			}
			group.Cards = append(group.Cards, Card{Key: m.Key, Label: m.Label, Icon: m.Icon, Value: text, Raw: raw})
		}
		d.Groups = append(d.Groups, group)
	}

	for _, f := range format.ReviewFields {
		text, ok := format.Review(f.Key, format.ReviewValue(f.Key, formValues, out))
		if !ok {
			continue
		}
		d.Review = append(d.Review, ReviewRow{Key: f.Key, Label: f.Label, Icon: f.Icon, Value: text})
	}

	for _, key := range model.ChartKeys {
		s, ok := out.Charts[key]
		if !ok {
			continue
		}
		d.Charts = append(d.Charts, Chart{Key: key, Title: ChartTitles[key], Labels: s.Labels(), Values: s.Values()})
	}
	return d
}

// staffKeys 各部门人数
var staffKeys = []string{
	model.KeyStaffCommercial,
	model.KeyStaffBillingMetering,
	model.KeyStaffCollections,
	model.KeyStaffRegistry,
	model.KeyStaffControls,
	model.KeyStaffIT,
	model.KeyStaffCompliance,
	model.KeyStaffTraining,
}

// withDerived 工作簿未提供时补充总人数
func withDerived(out *model.Output) *model.Output {
	if _, ok := out.Get(model.KeyTotalStaff); ok {
		return out
	}
	total, found := 0.0, false
	for _, k := range staffKeys {
		if v, ok := out.Number(k); ok {
			total += v
			found = true
		}
	}
	if !found {
		return out
	}

	cp := model.NewOutput()
	for k, v := range out.Fields {
		cp.Fields[k] = v
	}
	for k, v := range out.Charts {
		cp.Charts[k] = v
	}
	cp.Set(model.KeyTotalStaff, total)
	return cp
}

// FormValues 情景输入转为表单值（JSON 字段名）
func FormValues(in *model.ScenarioInput) map[string]any {
	if in == nil {
		return nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
