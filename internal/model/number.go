package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number 表单数值
//
// 兼容 JSON 数字和数字字符串（表单控件常以字符串提交），支持 "85,5" 这种逗号小数。
type Number float64

// NewNumber 便于构造可选字段
func NewNumber(v float64) *Number {
	n := Number(v)
	return &n
}

// Float 取值，nil 视为 0
func (n *Number) Float() float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}

// UnmarshalJSON 实现 json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		if s == "" {
			return fmt.Errorf("empty number")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = Number(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
