package model

import (
	"math"
	"sort"
	"strings"
)

// FieldErrors 字段级校验错误（字段 JSON 名 -> 提示语）
type FieldErrors map[string]string

// Error 实现 error
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid scenario input: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) add(field, msg string) {
	if _, exists := fe[field]; exists {
		return
	}
	fe[field] = msg
}

type numberRule struct {
	field    string
	value    *Number
	optional bool
	missing  string
	min      float64
	minMsg   string
	max      float64
	maxMsg   string
}

func requiredRule(field string, v *Number, missing string, min float64, minMsg string, max float64, maxMsg string) numberRule {
	return numberRule{field: field, value: v, missing: missing, min: min, minMsg: minMsg, max: max, maxMsg: maxMsg}
}

func optionalRule(field string, v *Number, missing string, min float64, minMsg string, max float64, maxMsg string) numberRule {
	r := requiredRule(field, v, missing, min, minMsg, max, maxMsg)
	r.optional = true
	return r
}

func (r numberRule) check(fe FieldErrors) {
	if r.value == nil {
		if !r.optional {
			fe.add(r.field, r.missing)
		}
		return
	}
	v := r.value.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		fe.add(r.field, r.missing)
		return
	}
	if v < r.min {
		fe.add(r.field, r.minMsg)
		return
	}
	if v > r.max {
		fe.add(r.field, r.maxMsg)
	}
}

// Validate 按表单规则校验情景输入
//
// 返回 nil 表示通过；提示语与前端表单一致，可直接展示在字段下方。
func (in *ScenarioInput) Validate() error {
	fe := FieldErrors{}

	if in.Population == nil {
		fe.add("habitantes", "Informe o número de habitantes")
	} else {
		v := in.Population.Float()
		switch {
		case v != math.Trunc(v):
			fe.add("habitantes", "Informe um número inteiro")
		case v < 1:
			fe.add("habitantes", "Mínimo de 1 habitante necessário")
		}
	}

	if !contains(Regions, in.Region) {
		fe.add("regiao", "Selecione uma região válida")
	}
	if !contains(ConcessionBillingModels, in.ConcessionBillingModel) {
		fe.add("modeloCobrancaConcessao", "Selecione um modelo de cobrança")
	}
	if !contains(StartYears(), in.StartYear) {
		fe.add("anoInicio", "Selecione um ano de início válido")
	}
	if !contains(InitialBillingModels, in.InitialBillingModel) {
		fe.add("modeloInicialCobranca", "Selecione um modelo de cobrança")
	}
	if !contains(TransitionYears(), in.TransitionYear) {
		fe.add("anosTransicaoModeloCobranca", "Selecione um ano válido")
	}
	if !contains(BillingTypologies, in.BillingTypology) {
		fe.add("tipologiaFaturamento", "Selecione uma tipologia de faturamento")
	}
	if !contains(AveragePriceBases, in.AveragePriceBasis) {
		fe.add("basePrecoMedio", "Selecione uma base de preço médio")
	}

	rules := []numberRule{
		optionalRule("taxaGeracaoResiduos", in.WasteGenerationRate, "Informe a taxa de geração de resíduos",
			0.1, "Taxa mínima é 0.1 kg/hab.dia", 1.5, "Taxa máxima é 1.5 kg/hab.dia"),
		requiredRule("taxaColetaResiduos", in.CollectionRate, "Informe a taxa de coleta de resíduos",
			50, "Taxa mínima é 50%", 100, "Taxa máxima é 100%"),
		requiredRule("crescimentoPopulacionalAnual", in.PopulationGrowth, "Informe o crescimento populacional anual",
			0, "Crescimento mínimo é 0%", 5, "Crescimento máximo é 5%"),
		requiredRule("habitantesPorResidencia", in.PeoplePerHousehold, "Informe o número de habitantes por residência",
			1, "Mínimo de 1 habitante por residência", 7, "Máximo de 7 habitantes por residência"),
		requiredRule("receitaRepassada", in.RevenueShare, "Informe a receita repassada",
			0, "Receita repassada mínima é 0%", 10, "Receita repassada máxima é 10%"),
		optionalRule("incrementoReceita", in.RevenueIncrement, "Informe o incremento de receita",
			0, "Incremento mínimo é 0%", 10, "Incremento máximo é 10%"),
	}
	for _, r := range rules {
		r.check(fe)
	}

	if len(in.Sectors) == 0 {
		fe.add("setores", "Selecione ao menos um setor")
	}
	for _, s := range in.Sectors {
		if !s.IsKnown() {
			fe.add("setores", "Setor desconhecido: "+string(s))
			break
		}
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}
