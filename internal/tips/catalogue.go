package tips

import (
	"time"

	"github.com/JeeerryZ/simuladordre/internal/model"
)

// DefaultDuration 未指定时长时的自动隐藏时间
const DefaultDuration = 5 * time.Second

// Tip 一条提示
type Tip struct {
	ID       string        `json:"id"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"-"`
}

// DurationMs 前端使用的毫秒时长
func (t Tip) DurationMs() int64 {
	return t.duration().Milliseconds()
}

func (t Tip) duration() time.Duration {
	if t.Duration <= 0 {
		return DefaultDuration
	}
	return t.Duration
}

// 提示 ID
const (
	IDWelcome             = "welcome"
	IDClickHelp           = "click-help"
	IDPopulationLow       = "habitantes-low"
	IDPopulationMedium    = "habitantes-medium"
	IDPopulationHigh      = "habitantes-high"
	IDBillingModel        = "modelo-cobranca"
	IDCollectionRate      = "taxa-coleta"
	IDStartYear           = "ano-inicio"
	IDPopulationGrowth    = "crescimento-pop"
	IDInitialBillingModel = "modelo-inicial"
	IDTransitionYears     = "anos-transicao"
	IDRevenueShare        = "repasse-agencia"
	IDCommercialSectors   = "setores-comercial"
	IDBillingTypology     = "tipologia-faturamento"
)

const (
	fieldTipDuration   = 7 * time.Second
	smallCityThreshold = 100000
	largeCityThreshold = 1000000
)

var catalogue = map[string]Tip{
	IDWelcome:             {ID: IDWelcome, Message: "Preencha o formulário para simular os resultados do setor comercial.", Duration: 8 * time.Second},
	IDClickHelp:           {ID: IDClickHelp, Message: "Precisa de uma mão? Vou te dando dicas conforme você preenche !"},
	IDPopulationLow:       {ID: IDPopulationLow, Message: "Para cidades menores, modelos mais simples de cobrança costumam funcionar melhor.", Duration: fieldTipDuration},
	IDPopulationMedium:    {ID: IDPopulationMedium, Message: "Cidades de médio porte podem se beneficiar de modelos híbridos de cobrança.", Duration: fieldTipDuration},
	IDPopulationHigh:      {ID: IDPopulationHigh, Message: "Grandes cidades geralmente exigem modelos de cobrança mais complexos e robustos.", Duration: fieldTipDuration},
	IDBillingModel:        {ID: IDBillingModel, Message: "O modelo de cobrança define como os valores serão arrecadados ao longo da concessão. Escolha o que mais se aproxima da realidade do município.", Duration: fieldTipDuration},
	IDCollectionRate:      {ID: IDCollectionRate, Message: "Taxas de coleta acima de 80% são ótimas, mas avalie se são viáveis para sua cidade. Bons indicadores refletem eficiência operacional.", Duration: fieldTipDuration},
	IDStartYear:           {ID: IDStartYear, Message: "O ano de início impacta todas as projeções, especialmente com crescimento populacional relevante. Certifique-se de que essa data esteja correta.", Duration: fieldTipDuration},
	IDPopulationGrowth:    {ID: IDPopulationGrowth, Message: "Projeções de crescimento populacional acima de 3% podem alterar significativamente o resultado da simulação ao longo dos anos.", Duration: fieldTipDuration},
	IDInitialBillingModel: {ID: IDInitialBillingModel, Message: "O modelo inicial de cobrança pode ser alterado depois dos primeiros anos. Confira se sua escolha se encaixa no contexto local.", Duration: fieldTipDuration},
	IDTransitionYears:     {ID: IDTransitionYears, Message: "Definir o tempo de transição garante adaptação dos usuários e stakeholders. Períodos curtos podem exigir campanhas de divulgação.", Duration: fieldTipDuration},
	IDRevenueShare:        {ID: IDRevenueShare, Message: "A porcentagem repassada impacta a margem financeira do setor. Ajuste conforme exigências legais e acordos de concessão.", Duration: fieldTipDuration},
	IDCommercialSectors:   {ID: IDCommercialSectors, Message: "Selecione todas as áreas envolvidas para garantir que os cálculos reflitam a estrutura real do setor comercial.", Duration: fieldTipDuration},
	IDBillingTypology:     {ID: IDBillingTypology, Message: "Tipologias diferentes podem trazer regras específicas para cobrança e faturamento. Certifique-se de selecionar corretamente.", Duration: fieldTipDuration},
}

// fieldTips 表单字段 -> 提示（habitantes 按数值另行处理）
var fieldTips = map[string]string{
	"modeloCobrancaConcessao":      IDBillingModel,
	"taxaColetaResiduos":           IDCollectionRate,
	"anoInicio":                    IDStartYear,
	"crescimentoPopulacionalAnual": IDPopulationGrowth,
	"modeloInicialCobranca":        IDInitialBillingModel,
	"anosTransicaoModeloCobranca":  IDTransitionYears,
	"receitaRepassada":             IDRevenueShare,
	"setores":                      IDCommercialSectors,
	"tipologiaFaturamento":         IDBillingTypology,
}

// Lookup 按 ID 查找提示
func Lookup(id string) (Tip, bool) {
	t, ok := catalogue[id]
	return t, ok
}

// ForField 表单字段变化对应的提示
//
// 人口按阈值分三档：< 100 000、(100 000, 1 000 000]、> 1 000 000；恰好 100 000 不提示。
func ForField(field string, value any) (Tip, bool) {
	if field == "habitantes" {
		v, ok := model.ToFloat(value)
		if !ok {
			return Tip{}, false
		}
		switch {
		case v < smallCityThreshold:
			return Lookup(IDPopulationLow)
		case v > smallCityThreshold && v <= largeCityThreshold:
			return Lookup(IDPopulationMedium)
		case v > largeCityThreshold:
			return Lookup(IDPopulationHigh)
		}
		return Tip{}, false
	}
	if id, ok := fieldTips[field]; ok {
		return Lookup(id)
	}
	return Tip{}, false
}
