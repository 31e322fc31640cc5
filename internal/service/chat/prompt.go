package chat

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt 固定的系统提示（葡萄牙语）
//
//go:embed system_prompt.txt
var SystemPrompt string

// BuildSystemPrompt 拼接系统提示与模拟上下文
//
// excelOutput 与 formValues 以缩进 JSON 附在提示后；值为 nil 时对应对象为空 {}。
func BuildSystemPrompt(excelOutput, formValues any) (string, error) {
	simulator, err := contextJSON("excelOutput", excelOutput)
	if err != nil {
		return "", err
	}
	form, err := contextJSON("formValues", formValues)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString(" Contexto do simulador (saída do Excel):\n")
	b.WriteString(simulator)
	b.WriteString("\n\nContexto do formulário preenchido:\n")
	b.WriteString(form)
	return b.String(), nil
}

func contextJSON(key string, v any) (string, error) {
	payload := map[string]any{}
	if !isAbsent(v) {
		payload[key] = v
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	return string(data), nil
}

func isAbsent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case json.RawMessage:
		return len(t) == 0
	}
	return false
}
