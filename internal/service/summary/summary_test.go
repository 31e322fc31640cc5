package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JeeerryZ/simuladordre/internal/model"
)

func sampleOutput() *model.Output {
	out := model.NewOutput()
	out.Set(model.KeyInvoiceCount, 120000.0)
	out.Set(model.KeyServiceUnits, 3.0)
	out.Set(model.KeyInvoicesPerServiceUnit, 40000.0)
	out.Set(model.KeyClientsPerServiceUnit, 3333.0)
	out.Set(model.KeyDuplicateInvoicesPerYear, 0.0)
	out.Set(model.KeyInitialInvestment, 1234567.5)
	out.Set(model.KeyCivilWorksInvestment, 1000000.0)
	out.Set(model.KeyLandAcquisitionInvestment, 234567.5)
	out.Set(model.KeyHousingUnits, 10000.0)
	out.Set(model.KeyTotalServiceArea, 750.0)
	out.Set(model.KeyConcessionSize, "Médio")
	out.Set(model.KeyAverageDelinquency, 12.5)
	out.Set(model.KeyStaffCommercial, 3.0)
	out.Set(model.KeyStaffCollections, 2.0)
	out.Charts[model.ChartUnitCostPerTonne] = model.Series{{2026.0, 2027.0}, {310.5, 305.1}}
	return out
}

func TestBuild_CardsSkipZeroAndMissing(t *testing.T) {
	t.Parallel()

	d := Build(sampleOutput(), nil)
	require.Len(t, d.Groups, 5)

	main := d.Groups[0]
	require.Equal(t, "Operacional", main.Title)
	keys := make([]string, 0, len(main.Cards))
	for _, c := range main.Cards {
		keys = append(keys, c.Key)
	}
	// segundas vias = 0 não aparece
	require.Equal(t, []string{model.KeyClientsPerServiceUnit, model.KeyServiceUnits, model.KeyInvoiceCount}, keys)
	require.Equal(t, "120.000", main.Cards[2].Value)

	finance := d.Groups[2]
	require.Equal(t, "R$ 1.234.567,50", finance.Cards[len(finance.Cards)-1].Value)

	infra := d.Groups[1]
	require.Equal(t, "750 m²", infra.Cards[1].Value)
	require.Equal(t, "Médio", infra.Cards[2].Value)

	staff := d.Groups[3]
	require.Len(t, staff.Cards, 2)
	require.Equal(t, "3 Colaborador(es)", staff.Cards[0].Value)

	require.Empty(t, d.Groups[4].Cards)
}

func TestBuild_ReviewPrefersFormValues(t *testing.T) {
	t.Parallel()

	d := Build(sampleOutput(), map[string]any{"habitantes": 32000.0})

	byKey := map[string]string{}
	for _, r := range d.Review {
		byKey[r.Key] = r.Value
	}
	require.Equal(t, "32.000", byKey["habitantes"])
	require.Equal(t, "R$ 1.234.567,50", byKey[model.KeyInitialInvestment])
	require.Equal(t, "12.5%", byKey[model.KeyAverageDelinquency])
	require.Equal(t, "-", byKey[model.KeyCollectionCost])
	// 总人数由各部门人数推导
	require.Equal(t, "5", byKey[model.KeyTotalStaff])
	_, hasZero := byKey[model.KeyDuplicateInvoicesPerYear]
	require.False(t, hasZero)
}

func TestBuild_ChartsInFixedOrder(t *testing.T) {
	t.Parallel()

	out := sampleOutput()
	out.Charts[model.ChartUnitCostPerHousing] = model.Series{{2026.0}, {12.0}}

	d := Build(out, nil)
	require.Len(t, d.Charts, 2)
	require.Equal(t, model.ChartUnitCostPerHousing, d.Charts[0].Key)
	require.Equal(t, model.ChartUnitCostPerTonne, d.Charts[1].Key)
	require.Equal(t, "Custo unitário geral anual por Tonelada (R$/Ton)", d.Charts[1].Title)
	require.Equal(t, []any{310.5, 305.1}, d.Charts[1].Values)
}

func TestInsights(t *testing.T) {
	t.Parallel()

	ins := Insights(sampleOutput())
	require.Len(t, ins, 4)
	require.Equal(t, "No período analisado, foram geradas 120.000 faturas ao longo de 3 unidades, mostrando o alcance operacional do projeto.", ins[0].Text)
	require.Equal(t, "Cada unidade de atendimento processou em média 40.000 faturas ao ano.", ins[0].Detail)
	require.True(t, strings.Contains(ins[1].Text, "R$ 1.234.567,50 distribuído"))
	require.Equal(t, "Foram atendidas 10.000 residências, refletindo na coleta/tratamento de 0 toneladas por mês de resíduos sólidos urbanos.", ins[2].Text)
	require.Equal(t, "A inadimplência média foi reportada em 12,5%.", ins[3].Text)
	require.True(t, ins[3].Warning)
	require.Contains(t, ins[3].Detail, "renegociação")
}

func TestInsights_HealthyDelinquency(t *testing.T) {
	t.Parallel()

	out := sampleOutput()
	out.Set(model.KeyAverageDelinquency, 10.0)

	ins := Insights(out)
	require.False(t, ins[3].Warning)
	require.Equal(t, "O índice está dentro da faixa saudável para o segmento.", ins[3].Detail)
}

func TestFormValues(t *testing.T) {
	t.Parallel()

	in := &model.ScenarioInput{Population: model.NewNumber(32000), Region: "Sul", Sectors: []model.Sector{model.SectorIT}}
	fv := FormValues(in)
	require.Equal(t, 32000.0, fv["habitantes"])
	require.Equal(t, "Sul", fv["regiao"])
	_, hasOptional := fv["taxaGeracaoResiduos"]
	require.False(t, hasOptional)
	require.Nil(t, FormValues(nil))
}
