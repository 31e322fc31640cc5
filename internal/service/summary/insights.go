package summary

import (
	"fmt"
	"strconv"

	"github.com/JeeerryZ/simuladordre/internal/format"
	"github.com/JeeerryZ/simuladordre/internal/model"
)

// DelinquencyThreshold 平均拖欠率预警阈值（%）
const DelinquencyThreshold = 10.0

// Insight 一条分析结论
type Insight struct {
	Title   string `json:"title"`
	Icon    string `json:"icon,omitempty"`
	Text    string `json:"text"`
	Detail  string `json:"detail,omitempty"`
	Warning bool   `json:"warning,omitempty"`
}

// Insights 生成 4 条固定结论
func Insights(out *model.Output) []Insight {
	delinquency, _ := out.Number(model.KeyAverageDelinquency)
	warning := delinquency > DelinquencyThreshold

	commercialDetail := "O índice está dentro da faixa saudável para o segmento."
	if warning {
		commercialDetail = "O valor recomenda atenção à renegociação e estratégias de incentivo ao pagamento."
	}

	billingText := fmt.Sprintf("No período analisado, foram geradas %s faturas ao longo de %s unidades, mostrando o alcance operacional do projeto.",
		text(out, model.KeyInvoiceCount, false), raw(out, model.KeyServiceUnits))
	billingDetail := fmt.Sprintf("Cada unidade de atendimento processou em média %s faturas ao ano.",
		orZero(text(out, model.KeyInvoicesPerServiceUnit, false)))

	investText := fmt.Sprintf("O investimento total planejado é de R$ %s distribuído em estruturas civis, aquisição de áreas e evolução tecnológica.",
		text(out, model.KeyInitialInvestment, true))
	investDetail := fmt.Sprintf("Destacam-se R$ %s aplicados em estruturas e R$ %s na expansão física do atendimento.",
		orZero(text(out, model.KeyCivilWorksInvestment, true)), orZero(text(out, model.KeyLandAcquisitionInvestment, true)))

	opsText := fmt.Sprintf("Foram atendidas %s residências, refletindo na coleta/tratamento de %s toneladas por mês de resíduos sólidos urbanos.",
		orZero(text(out, model.KeyHousingUnits, false)), orZero(text(out, model.KeyWasteCollectedPerMonth, false)))
	opsDetail := fmt.Sprintf("A área total coberta no momento é %s m², permitindo um atendimento com excelência.",
		orZero(text(out, model.KeyTotalServiceArea, false)))

	commercialText := fmt.Sprintf("A inadimplência média foi reportada em %s%%.", text(out, model.KeyAverageDelinquency, false))

	return []Insight{
		{Title: "Faturamento & Volume", Icon: "trending-up", Text: billingText, Detail: billingDetail},
		{Title: "Investimento & Estrutura", Icon: "piggy-bank", Text: investText, Detail: investDetail},
		{Title: "Performance Operacional", Icon: "bar-chart-3", Text: opsText, Detail: opsDetail},
		{Title: "Gestão Comercial", Icon: "badge-percent", Text: commercialText, Detail: commercialDetail, Warning: warning},
	}
}

// text 数值按 pt-BR 格式化（金额至少两位小数），字符串原样，缺失为空
func text(out *model.Output, key string, money bool) string {
	v, ok := out.Get(key)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	f, ok := model.ToFloat(v)
	if !ok {
		return fmt.Sprint(v)
	}
	if money {
		return format.Amount(f)
	}
	return format.Number(f)
}

// raw 不做本地化，缺失为 0
func raw(out *model.Output, key string) string {
	f, ok := out.Number(key)
	if !ok {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
