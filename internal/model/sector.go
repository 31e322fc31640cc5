package model

// Sector 商业部门（组织架构中的业务部门）
type Sector string

const (
	SectorCustomerService Sector = "atendimento-comercial"
	SectorBillingMetering Sector = "faturamento-leitura-medicao"
	SectorCollections     Sector = "cobranca-negociacao"
	SectorRegistry        Sector = "cadastro-contratos"
	SectorControls        Sector = "controles-indicadores"
	SectorIT              Sector = "tecnologia-informacao"
	SectorCompliance      Sector = "compliance-auditoria-interna"
	SectorTraining        Sector = "treinamento-desenvolvimento"
)

// Sectors 全部部门，顺序即写入工作簿的顺序
var Sectors = []Sector{
	SectorCustomerService,
	SectorBillingMetering,
	SectorCollections,
	SectorRegistry,
	SectorControls,
	SectorIT,
	SectorCompliance,
	SectorTraining,
}

// SectorLabels 部门展示名
var SectorLabels = map[Sector]string{
	SectorCustomerService: "Atendimento Comercial",
	SectorBillingMetering: "Faturamento, Leitura e Medição",
	SectorCollections:     "Cobrança e Negociação",
	SectorRegistry:        "Cadastro e Contratos",
	SectorControls:        "Controles e Indicadores",
	SectorIT:              "Tecnologia de Informação",
	SectorCompliance:      "Compliance e Auditoria Interna",
	SectorTraining:        "Treinamento e Desenvolvimento",
}

// IsKnown 是否为已知部门
func (s Sector) IsKnown() bool {
	_, ok := SectorLabels[s]
	return ok
}

// Label 展示名，未知部门原样返回
func (s Sector) Label() string {
	if l, ok := SectorLabels[s]; ok {
		return l
	}
	return string(s)
}
