package mapping

import (
	"github.com/JeeerryZ/simuladordre/internal/model"
)

// 扇区标记值
const (
	FlagYes = "Sim"
	FlagNo  = "Não"
)

// InputRow 输入表的一行：逻辑字段 -> 写入区域中的第 i 行
type InputRow struct {
	Field string
	Value func(in *model.ScenarioInput) any
}

// InputRows 输入映射表
//
// 顺序即工作簿 CONFIGURAÇÃO_CONCESSÃO!C6:C27 的行顺序，第 i 项写入第 i 行。
var InputRows = []InputRow{
	{Field: "habitantes", Value: func(in *model.ScenarioInput) any { return number(in.Population) }},
	{Field: "regiao", Value: func(in *model.ScenarioInput) any { return text(in.Region) }},
	{Field: "modeloCobrancaConcessao", Value: func(in *model.ScenarioInput) any { return text(in.ConcessionBillingModel) }},
	{Field: "taxaGeracaoResiduos", Value: func(in *model.ScenarioInput) any { return number(in.WasteGenerationRate) }},
	{Field: "taxaColetaResiduos", Value: func(in *model.ScenarioInput) any { return fraction(in.CollectionRate) }},
	{Field: "anoInicio", Value: func(in *model.ScenarioInput) any { return text(in.StartYear) }},
	{Field: "crescimentoPopulacionalAnual", Value: func(in *model.ScenarioInput) any { return fraction(in.PopulationGrowth) }},
	{Field: "habitantesPorResidencia", Value: func(in *model.ScenarioInput) any { return number(in.PeoplePerHousehold) }},
	{Field: "modeloInicialCobranca", Value: func(in *model.ScenarioInput) any { return text(in.InitialBillingModel) }},
	{Field: "anosTransicaoModeloCobranca", Value: func(in *model.ScenarioInput) any { return text(in.TransitionYear) }},
	{Field: "modeloFinalCobranca", Value: func(*model.ScenarioInput) any { return model.FinalBillingModel }},
	{Field: "receitaRepassada", Value: func(in *model.ScenarioInput) any { return fraction(in.RevenueShare) }},
	sectorRow("atendimentoComercial", model.SectorCustomerService),
	sectorRow("faturamentoLeituraMedicao", model.SectorBillingMetering),
	sectorRow("cobrancaNegociacao", model.SectorCollections),
	sectorRow("cadastroContratos", model.SectorRegistry),
	sectorRow("controlesIndicadores", model.SectorControls),
	sectorRow("tecnologiaInformacao", model.SectorIT),
	sectorRow("complianceAuditoriaInterna", model.SectorCompliance),
	sectorRow("treinamentoDesenvolvimento", model.SectorTraining),
	{Field: "tipologiaFaturamento", Value: func(in *model.ScenarioInput) any { return text(in.BillingTypology) }},
	{Field: "basePrecoMedio", Value: func(in *model.ScenarioInput) any { return text(in.AveragePriceBasis) }},
}

func sectorRow(field string, s model.Sector) InputRow {
	return InputRow{
		Field: field,
		Value: func(in *model.ScenarioInput) any { return SectorFlag(in.Sectors, s) },
	}
}

// SectorFlag 部门是否被选中 -> "Sim" / "Não"
func SectorFlag(selected []model.Sector, s model.Sector) string {
	for _, sel := range selected {
		if sel == s {
			return FlagYes
		}
	}
	return FlagNo
}

// InputValues 将情景输入转换为单列区域的值（每行一个值）
//
// 不做范围校验；缺失的可选字段为 nil，写入时保持单元格不变。
func InputValues(in *model.ScenarioInput) [][]any {
	values := make([][]any, 0, len(InputRows))
	for _, row := range InputRows {
		values = append(values, []any{row.Value(in)})
	}
	return values
}

// InputFields 输入表字段顺序
func InputFields() []string {
	out := make([]string, 0, len(InputRows))
	for _, row := range InputRows {
		out = append(out, row.Field)
	}
	return out
}

func number(n *model.Number) any {
	if n == nil {
		return nil
	}
	return float64(*n)
}

// fraction 百分比 -> 小数（85 -> 0.85）
func fraction(n *model.Number) any {
	if n == nil {
		return nil
	}
	return float64(*n) / 100
}

func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}
