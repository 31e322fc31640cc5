package model

import (
	"fmt"
	"strconv"
)

// 表单枚举值（与前端下拉框保持一致）
var (
	Regions                 = []string{"Norte", "Nordeste", "Centro-Oeste", "Sudeste", "Sul"}
	ConcessionBillingModels = []string{"Cobrança Direta", "Cobrança com Cofaturamento"}
	InitialBillingModels    = []string{"Taxa", "Tarifa"}
	BillingTypologies       = []string{"Fatura Física", "Fatura Digital", "Ambas"}
	AveragePriceBases       = []string{"ABLP (Valoriza Resíduos)", "UVS São Carlos"}
)

// FinalBillingModel 过渡期结束后的收费模式（工作簿固定为 Tarifa）
const FinalBillingModel = "Tarifa"

const (
	firstStartYear  = 2026
	startYearCount  = 20
	transitionCount = 20
)

// StartYears 可选起始年份 "2026".."2045"
func StartYears() []string {
	out := make([]string, 0, startYearCount)
	for i := 0; i < startYearCount; i++ {
		out = append(out, strconv.Itoa(firstStartYear+i))
	}
	return out
}

// TransitionYears 可选过渡年份 "1º ano".."20º ano"
func TransitionYears() []string {
	out := make([]string, 0, transitionCount)
	for i := 1; i <= transitionCount; i++ {
		out = append(out, fmt.Sprintf("%dº ano", i))
	}
	return out
}

// ScenarioInput 情景输入（表单提交内容，校验后不再修改）
//
// JSON 字段名即前端契约，不可随意改名。
type ScenarioInput struct {
	Population             *Number  `json:"habitantes"`
	Region                 string   `json:"regiao"`
	ConcessionBillingModel string   `json:"modeloCobrancaConcessao"`
	WasteGenerationRate    *Number  `json:"taxaGeracaoResiduos,omitempty"` // kg/hab.dia
	CollectionRate         *Number  `json:"taxaColetaResiduos"`            // 百分比 50-100
	StartYear              string   `json:"anoInicio"`
	PopulationGrowth       *Number  `json:"crescimentoPopulacionalAnual"` // 百分比 0-5
	PeoplePerHousehold     *Number  `json:"habitantesPorResidencia"`
	InitialBillingModel    string   `json:"modeloInicialCobranca"`
	TransitionYear         string   `json:"anosTransicaoModeloCobranca"`
	RevenueShare           *Number  `json:"receitaRepassada"` // 百分比 0-10
	Sectors                []Sector `json:"setores"`
	BillingTypology        string   `json:"tipologiaFaturamento"`
	RevenueIncrement       *Number  `json:"incrementoReceita,omitempty"` // 不写入工作簿
	AveragePriceBasis      string   `json:"basePrecoMedio"`
}

// HasSector 是否选择了某个部门
func (in *ScenarioInput) HasSector(s Sector) bool {
	for _, sel := range in.Sectors {
		if sel == s {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
