package format

import (
	"strconv"
	"strings"

	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/JeeerryZ/simuladordre/internal/model"
)

const staffUnit = "Colaborador(es)"

// MainMetrics 运营卡片
var MainMetrics = []Metric{
	{Key: model.KeyClientsPerServiceUnit, Label: "Clientes/Unidade", Icon: "users"},
	{Key: model.KeyServiceUnits, Label: "Unidades de Atendimento", Icon: "home"},
	{Key: model.KeyInvoiceCount, Label: "Faturas Processadas/Ano", Icon: "trending-up"},
	{Key: model.KeyDuplicateInvoicesPerYear, Label: "2ª Via Anual", Icon: "notebook-text", Unit: "Projetadas"},
}

// FinanceMetrics 投资卡片
var FinanceMetrics = []Metric{
	{Key: model.KeyAverageAnnualInvestment, Label: "Investimento Médio Anual", Icon: "wallet", Money: true},
	{Key: model.KeyLandAcquisitionInvestment, Label: "Aquisição de Áreas", Icon: "banknote", Money: true},
	{Key: model.KeyCivilWorksInvestment, Label: "Estrutura Civil", Icon: "coins", Money: true},
	{Key: model.KeyInitialInvestment, Label: "Investimento Total Inicial", Icon: "piggy-bank", Money: true},
}

// StaffMetrics 人员配置卡片
var StaffMetrics = []Metric{
	{Key: model.KeyStaffCommercial, Label: "Unidades Comerciais", Icon: "users", Unit: staffUnit},
	{Key: model.KeyStaffCollections, Label: "Cobrança & Negociação", Icon: "credit-card", Unit: staffUnit},
	{Key: model.KeyStaffRegistry, Label: "Cadastro & Contatos", Icon: "notebook-pen", Unit: staffUnit},
	{Key: model.KeyStaffControls, Label: "Controles & Indicadores", Icon: "bar-chart-3", Unit: staffUnit},
	{Key: model.KeyStaffIT, Label: "Tecnologia da Informação", Icon: "monitor", Unit: staffUnit},
	{Key: model.KeyStaffCompliance, Label: "Compliance & Auditoria", Icon: "shield-check", Unit: staffUnit},
	{Key: model.KeyStaffTraining, Label: "Treinamento & Desenvolvimento", Icon: "user-cog", Unit: staffUnit},
}

// InfrastructureMetrics 基础设施卡片
var InfrastructureMetrics = []Metric{
	{Key: model.KeyHousingUnits, Label: "Unidades Habitacionais", Icon: "house"},
	{Key: model.KeyTotalServiceArea, Label: "Área Total", Icon: "scan", Unit: "m²"},
	{Key: model.KeyConcessionSize, Label: "Porte da Concessão", Icon: "badge-percent"},
}

// DeptCostMetrics 部门成本影响卡片
var DeptCostMetrics = []Metric{
	{Key: model.KeyDeptCostOverTotalCost, Label: "Custo Departamento por Custo Geral", Icon: "credit-card", Unit: "%", Decimals: 2},
	{Key: model.KeyDeptCostOverGrossRevenue, Label: "Custo Departamento por Receita Bruta", Icon: "receipt", Unit: "%", Decimals: 2},
}

// Group 一组卡片
type Group struct {
	Title   string   `json:"title"`
	Metrics []Metric `json:"-"`
}

// Groups 结果页卡片分组，按展示顺序
var Groups = []Group{
	{Title: "Operacional", Metrics: MainMetrics},
	{Title: "Infraestrutura", Metrics: InfrastructureMetrics},
	{Title: "Investimentos/CAPEX", Metrics: FinanceMetrics},
	{Title: "Dimensionamento de Pessoas", Metrics: StaffMetrics},
	{Title: "Impacto dos Custos do Departamento", Metrics: DeptCostMetrics},
}

// ReviewField 汇总表的一行
type ReviewField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// ReviewFields 汇总表，先取表单值，再取计算结果
var ReviewFields = []ReviewField{
	{Key: "habitantes", Label: "Habitantes", Icon: "users"},
	{Key: model.KeyHousingUnits, Label: "Unid. Habitacionais", Icon: "home"},
	{Key: model.KeyConcessionSize, Label: "Porte da Concessão", Icon: "badge-percent"},
	{Key: model.KeyTotalServiceArea, Label: "Área Total (m²)", Icon: "area-chart"},
	{Key: model.KeyInitialInvestment, Label: "Invest. Inicial de Implantação", Icon: "wallet"},
	{Key: model.KeyAverageAnnualInvestment, Label: "Invest. Médio Anual", Icon: "piggy-bank"},
	{Key: model.KeyCivilWorksInvestment, Label: "Invest. Estrut. Civil", Icon: "banknote"},
	{Key: model.KeyLandAcquisitionInvestment, Label: "Invest. em aquisição de áreas", Icon: "book-text"},
	{Key: model.KeyInvoiceCount, Label: "Faturas/Ano", Icon: "file-text"},
	{Key: model.KeyInvoicesPerServiceUnit, Label: "Faturas/Unidade", Icon: "receipt"},
	{Key: model.KeyWasteCollectedPerMonth, Label: "RSU Coletado/mês (ton/mês)", Icon: "notebook-pen"},
	{Key: model.KeyClientsPerServiceUnit, Label: "Clientes/Unidade", Icon: "users"},
	{Key: model.KeyServiceUnits, Label: "Unidades de Atendimento", Icon: "home"},
	{Key: model.KeyTotalStaff, Label: "Total de Colaboradores", Icon: "users"},
	{Key: model.KeyAvgCollectionPrice, Label: "Preço Médio da Coleta e Destinação de Resíduos (R$/ton)", Icon: "banknote"},
	{Key: model.KeyAvgTreatmentPrice, Label: "Preço Médio do Tratamento e Destinação Resíduos (R$/ton)", Icon: "banknote"},
	{Key: model.KeyCollectionCost, Label: "Custo Coleta RSU (R$/ton)", Icon: "banknote"},
	{Key: model.KeyTreatmentCost, Label: "Custo Tratamento e Destinação RSU (R$/ton)", Icon: "banknote"},
	{Key: model.KeyAverageDelinquency, Label: "Inadimplência média", Icon: "shield-check"},
	{Key: model.KeyDuplicateInvoicesPerYear, Label: "2ª vias/ano", Icon: "file-text"},
	{Key: model.KeyDeptCostOverTotalCost, Label: "Custo Depto/Custo Geral", Icon: "alert-triangle"},
	{Key: model.KeyDeptCostOverGrossRevenue, Label: "Custo Depto/Receita Bruta", Icon: "coins"},
}

var reviewMoneyKeys = map[string]bool{
	model.KeyInitialInvestment:         true,
	model.KeyAverageAnnualInvestment:   true,
	model.KeyCivilWorksInvestment:      true,
	model.KeyLandAcquisitionInvestment: true,
	model.KeyCollectionCost:            true,
	model.KeyTreatmentCost:             true,
	model.KeyAvgCollectionPrice:        true,
	model.KeyAvgTreatmentPrice:         true,
}

// Review 汇总表的格式化规则
//
// 缺失为 "-"，金额带 R$ 且至少两位小数，inadimplência 与含 custo 的字段为一位小数百分比；
// 数值 0 不展示（第二个返回值为 false）。
func Review(key string, v any) (string, bool) {
	if v == nil {
		return "-", true
	}
	f, isNum := numeric(v)
	if _, isString := v.(string); !isString && isNum && f == 0 {
		return "", false
	}

	switch {
	case reviewMoneyKeys[key]:
		if !isNum {
			return "R$ " + toString(v), true
		}
		return "R$ " + Amount(f), true
	case key == model.KeyAverageDelinquency || strings.Contains(key, "custo"):
		if !isNum {
			return toString(v), true
		}
		return strconv.FormatFloat(roundHalfAway(f, 1), 'f', 1, 64) + "%", true
	case isNum:
		if s, ok := v.(string); ok {
			return s, true
		}
		return Number(f), true
	}
	return toString(v), true
}

// Amount 金额数字部分：至少两位、最多三位小数
func Amount(v float64) string {
	p := message.NewPrinter(Locale)
	return p.Sprint(number.Decimal(roundHalfAway(v, 3), number.MinFractionDigits(2), number.MaxFractionDigits(3)))
}

// ReviewValue 汇总表取值：表单值优先，其次计算结果
func ReviewValue(key string, input map[string]any, out *model.Output) any {
	if v, ok := input[key]; ok && v != nil {
		return v
	}
	if out == nil {
		return nil
	}
	v, _ := out.Get(key)
	return v
}
