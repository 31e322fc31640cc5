package exporter

// Stage 导出阶段
type Stage string

const (
	StageOpen    Stage = "Abrindo planilha"
	StageSummary Stage = "Resumo"
	StageCharts  Stage = "Gráficos"
	StageInputs  Stage = "Entradas"
	StageDone    Stage = "Concluído"
)

// stagePercent 各阶段完成时的进度
var stagePercent = map[Stage]int{
	StageOpen:    5,
	StageSummary: 30,
	StageCharts:  65,
	StageInputs:  90,
	StageDone:    100,
}

// Percent 阶段对应的进度，未知阶段为 0
func (s Stage) Percent() int {
	return stagePercent[s]
}

// ProgressEvent 导出进度事件（用于 UI 展示）
type ProgressEvent struct {
	Percent int   `json:"percent"`
	Stage   Stage `json:"stage"`
}

func reportProgress(progress func(ProgressEvent), stage Stage) {
	if progress == nil {
		return
	}
	progress(ProgressEvent{
		Percent: stage.Percent(),
		Stage:   stage,
	})
}
