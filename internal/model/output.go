package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// 计算结果字段（JSON 名即前端契约）
const (
	KeyInvoiceCount              = "quantidadesDeFatura"
	KeyInvoicesPerServiceUnit    = "faturasPorUnidadeAtendimento"
	KeyWasteCollectedPerMonth    = "rsuColetadoETratadoPorMes"
	KeyHousingUnits              = "unidadesHabitacionais"
	KeyDuplicateInvoicesPerYear  = "segundasViasProjetadasNoAno"
	KeyServiceUnits              = "unidadesDeAtendimento"
	KeyAreaPerServiceUnit        = "areaPorUnidadeAtendimento"
	KeyTotalServiceArea          = "areaTotalUnidadeAtendimento"
	KeyClientsPerServiceUnit     = "clientesPorUnidadeAtendimento"
	KeyInvestmentPerServiceUnit  = "investimentoPorUnidadeAtendimento"
	KeyCivilWorksInvestment      = "investimentoEstruturaCivil"
	KeyLandAcquisitionInvestment = "investimentoAquisicaoAreas"
	KeyInitialInvestment         = "investimentoInicialDeImplantacao"
	KeyAverageAnnualInvestment   = "investimentoMedioAnual"
	KeyAverageDelinquency        = "inadimplenciaMedia"
	KeyStaffCommercial           = "comercial"
	KeyStaffBillingMetering      = "faturamentoLeituraEMedicao"
	KeyStaffCollections          = "cobrancaENegociacao"
	KeyStaffRegistry             = "cadastroEContatos"
	KeyStaffControls             = "controlesEIndicadores"
	KeyStaffIT                   = "tecnologiaDaInformacao"
	KeyStaffCompliance           = "complianceEAuditoriaInterna"
	KeyStaffTraining             = "treinamentoEDesenvolvimento"
	KeyTotalStaff                = "totalColaboradores"
	KeyDeptCostOverTotalCost     = "custoDepartamentoPorCustoGeral"
	KeyDeptCostOverGrossRevenue  = "custoDepartamentoPorReceitaBruta"
	KeyAvgCollectionPrice        = "precoMedioColetaResiduos"
	KeyAvgTreatmentPrice         = "precoMedioTratamentoEDestinacaoResiduos"
	KeyCollectionCost            = "custoColetaRSU"
	KeyTreatmentCost             = "custoTratamentoEDestinacaoRSU"
	KeyConcessionSize            = "porteDaConcessao"
)

// 图表序列
const (
	ChartsKey                = "graficos"
	ChartUnitCostPerHousing  = "custoUnitarioGeralAnualPorUH"
	ChartUnitCostPerResident = "custoUnitarioGeralAnualPorHabitante"
	ChartUnitCostPerTonne    = "custoUnitarioGeralPorTonelada"
)

// ChartKeys 图表序列固定顺序
var ChartKeys = []string{ChartUnitCostPerHousing, ChartUnitCostPerResident, ChartUnitCostPerTonne}

// Series 两行序列：[0] 横轴标签，[1] 数值
type Series [2][]any

// Labels 横轴标签
func (s Series) Labels() []any { return s[0] }

// Values 纵轴数值
func (s Series) Values() []any { return s[1] }

// Output 计算结果
//
// Fields 中的值只会是 float64、string 或 []any（多单元格区域展开后的结果）。
type Output struct {
	Fields map[string]any
	Charts map[string]Series
}

// NewOutput 创建空结果
func NewOutput() *Output {
	return &Output{
		Fields: make(map[string]any),
		Charts: make(map[string]Series),
	}
}

// Set 设置字段
func (o *Output) Set(key string, v any) {
	if o.Fields == nil {
		o.Fields = make(map[string]any)
	}
	o.Fields[key] = v
}

// Get 读取字段
func (o *Output) Get(key string) (any, bool) {
	if o == nil || o.Fields == nil {
		return nil, false
	}
	v, ok := o.Fields[key]
	return v, ok
}

// Number 读取数值字段
func (o *Output) Number(key string) (float64, bool) {
	v, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// String 读取字符串字段
func (o *Output) String(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MarshalJSON 输出扁平对象：所有字段 + graficos
func (o Output) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(o.Fields)+1)
	for k, v := range o.Fields {
		flat[k] = v
	}
	if len(o.Charts) > 0 {
		flat[ChartsKey] = o.Charts
	}
	return json.Marshal(flat)
}

// UnmarshalJSON 解析扁平对象
func (o *Output) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.Fields = make(map[string]any, len(raw))
	o.Charts = make(map[string]Series)
	for k, v := range raw {
		if k == ChartsKey {
			if err := json.Unmarshal(v, &o.Charts); err != nil {
				return fmt.Errorf("decode %s: %w", ChartsKey, err)
			}
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		if val == nil {
			continue
		}
		o.Fields[k] = val
	}
	return nil
}

// ToFloat 将单元格/字段值转换为数值
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
