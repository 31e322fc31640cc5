// Package demo 生成与默认单元格映射一致的演示工作簿
//
// 公式是简化的示意模型，只保证输出随输入变化、结构与正式工作簿一致；
// 用于离线运行和测试，不代表正式测算口径。
package demo

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JeeerryZ/simuladordre/internal/mapping"
)

// LabelRange 输入标签列
const LabelRange = "B6:B27"

// Labels 输入区域每一行的标签
var Labels = []string{
	"Habitantes",
	"Região",
	"Modelo de cobrança da concessão",
	"Taxa de geração de resíduos (kg/hab.dia)",
	"Taxa de coleta de resíduos",
	"Ano de início",
	"Crescimento populacional anual",
	"Habitantes por residência",
	"Modelo inicial de cobrança",
	"Anos de transição do modelo de cobrança",
	"Modelo final de cobrança",
	"Receita repassada à agência",
	"Atendimento comercial",
	"Faturamento, leitura e medição",
	"Cobrança e negociação",
	"Cadastro e contratos",
	"Controles e indicadores",
	"Tecnologia da informação",
	"Compliance e auditoria interna",
	"Treinamento e desenvolvimento",
	"Tipologia de faturamento",
	"Base de preço médio",
}

// 跨表引用前缀
const (
	conc  = "'" + mapping.SheetConcession + "'!"
	porte = "'" + mapping.SheetSizing + "'!"
	capex = "'" + mapping.SheetCapex + "'!"
)

// 默认输入值，保证未写入时公式也能求值
var defaults = []any{
	50000.0, "Sudeste", "Cobrança Direta", 0.9, 0.85, "2026", 0.01, 3.0, "Taxa", "5º ano", "Tarifa", 0.02,
	"Sim", "Sim", "Sim", "Sim", "Sim", "Sim", "Sim", "Sim", "Ambas", "UVS São Carlos",
}

// 部门人数：ORGANOGRAMA 单元格 -> (标记单元格, 每名员工服务的住户数)
var staffing = []struct {
	cell, flag string
	perStaff   int
}{
	{"K18", "C18", 4000},
	{"K30", "C19", 6000},
	{"K43", "C20", 5000},
	{"K55", "C21", 9000},
	{"K65", "C22", 15000},
	{"K75", "C23", 12000},
	{"K83", "C24", 25000},
	{"K92", "C25", 30000},
}

// Template 构建演示工作簿
func Template() (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", mapping.SheetConcession); err != nil {
		return nil, fmt.Errorf("重命名工作表失败: %w", err)
	}
	for _, name := range []string{mapping.SheetGeneral, mapping.SheetSizing, mapping.SheetCapex, mapping.SheetOrgChart} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("创建工作表 %s 失败: %w", name, err)
		}
	}

	w := &writer{f: f}

	for i, label := range Labels {
		row := 6 + i
		w.value(mapping.SheetConcession, fmt.Sprintf("B%d", row), label)
		w.value(mapping.SheetConcession, fmt.Sprintf("C%d", row), defaults[i])
	}
	// 未填写生成率时按 0.9 kg/hab.dia
	w.formula(mapping.SheetConcession, "D9", "IF(C9=\"\",0.9,C9)")
	w.value(mapping.SheetConcession, "B37", "Unidades habitacionais")
	w.formula(mapping.SheetConcession, "C37", "ROUND(C6/C13,0)")

	w.formula(mapping.SheetSizing, "D56", "MAX(1,ROUNDUP("+conc+"C6/50000,0))")
	w.formula(mapping.SheetSizing, "E56", "ROUND("+conc+"C37/D56,0)")
	w.formula(mapping.SheetSizing, "D46", "IF(E56>20000,400,IF(E56>5000,250,120))")
	w.formula(mapping.SheetSizing, "D66", "D46*D56")
	w.formula(mapping.SheetSizing, "F56", "D46*3500")
	w.formula(mapping.SheetSizing, "F13", "IF("+conc+"C8=\"Cobrança Direta\",12.5,6.8)")

	w.formula(mapping.SheetGeneral, "AU56", conc+"C37*12")
	w.formula(mapping.SheetGeneral, "AU55", "ROUND(AU56*0.03,0)")
	w.formula(mapping.SheetGeneral, "AU57", "ROUND(AU56/"+porte+"D56,0)")

	w.formula(mapping.SheetCapex, "V33", porte+"D66*3500")
	w.formula(mapping.SheetCapex, "V34", porte+"D66*850")
	w.formula(mapping.SheetCapex, "V9", "V33+V34+"+porte+"D56*125000.5")
	w.formula(mapping.SheetCapex, "AZ9", "V9/20")

	for _, s := range staffing {
		w.formula(mapping.SheetOrgChart, s.cell,
			fmt.Sprintf("IF(%s%s=\"Sim\",ROUNDUP(%sC37/%d,0),0)", conc, s.flag, conc, s.perStaff))
	}

	// 图表：P..AC 共 14 年
	for col := 16; col <= 29; col++ {
		name, _ := excelize.ColumnNumberToName(col)
		if col == 16 {
			w.formula(mapping.SheetGeneral, "P6", "VALUE("+conc+"C11)")
		} else {
			prev, _ := excelize.ColumnNumberToName(col - 1)
			w.formula(mapping.SheetGeneral, name+"6", prev+"6+1")
		}
		growth := fmt.Sprintf("(1+%s$C$12)^(%s6-$P$6)", conc, name)
		w.formula(mapping.SheetGeneral, name+"25",
			fmt.Sprintf("ROUND(%s$AZ$9/(%s$C$37*%s),2)", capex, conc, growth))
		w.formula(mapping.SheetGeneral, name+"26",
			fmt.Sprintf("ROUND(%s$AZ$9/(%s$C$6*%s),2)", capex, conc, growth))
		w.formula(mapping.SheetGeneral, name+"27",
			fmt.Sprintf("ROUND(%s$AZ$9/(%s$C$6*%s$D$9*0.365*%s$C$10*%s),2)",
				capex, conc, conc, conc, growth))
	}

	if w.err != nil {
		return nil, w.err
	}
	return f, nil
}

// writer 记录第一个错误
type writer struct {
	f   *excelize.File
	err error
}

func (w *writer) value(sheet, cell string, v any) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellValue(sheet, cell, v); err != nil {
		w.err = fmt.Errorf("写入 %s!%s 失败: %w", sheet, cell, err)
	}
}

func (w *writer) formula(sheet, cell, formula string) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellFormula(sheet, cell, "="+formula); err != nil {
		w.err = fmt.Errorf("写入公式 %s!%s 失败: %w", sheet, cell, err)
	}
}

// LayoutCheck 演示工作簿对应的标签校验配置
func LayoutCheck() mapping.LayoutCheck {
	return mapping.LayoutCheck{Sheet: mapping.SheetConcession, LabelRange: LabelRange, Labels: Labels}
}
