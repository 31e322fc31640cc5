// Package format 结果展示格式化（pt-BR）
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/JeeerryZ/simuladordre/internal/model"
)

// Locale 展示语言
var Locale = language.BrazilianPortuguese

// Metric 卡片定义
type Metric struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Icon     string `json:"icon,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Decimals int    `json:"decimals,omitempty"` // >0 时固定小数位
	Money    bool   `json:"money,omitempty"`
}

// Number pt-BR 千分位，最多 3 位小数
func Number(v float64) string {
	return decimal(roundHalfAway(v, 3), number.MaxFractionDigits(3))
}

// Fixed pt-BR 固定小数位
func Fixed(v float64, decimals int) string {
	return decimal(roundHalfAway(v, decimals), number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals))
}

// BRL 货币格式，R$ 1.234,50
func BRL(v float64) string {
	if v < 0 {
		return "-R$ " + Fixed(-v, 2)
	}
	return "R$ " + Fixed(v, 2)
}

func decimal(v float64, opts ...number.Option) string {
	p := message.NewPrinter(Locale)
	return p.Sprint(number.Decimal(v, opts...))
}

// roundHalfAway 远离零方向舍入，与浏览器 toLocaleString 一致
func roundHalfAway(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// numeric 尽量把值解释为数字；ok=false 表示不是数字
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case []any:
		switch len(t) {
		case 0:
			return 0, true
		case 1:
			return numeric(t[0])
		}
		return 0, false
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return model.ToFloat(v)
}

// Value 按卡片规则格式化，第二个返回值为 false 表示不展示（缺失或为 0）
func Value(v any, m Metric) (string, bool) {
	if v == nil {
		return "", false
	}
	f, isNum := numeric(v)
	if isNum && f == 0 {
		return "", false
	}

	if arr, ok := v.([]any); ok && len(arr) > 1 {
		parts := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := Value(item, Metric{Money: m.Money, Decimals: m.Decimals}); ok {
				parts = append(parts, s)
			}
		}
		return withUnit(strings.Join(parts, ", "), m.Unit), len(parts) > 0
	}

	if !isNum {
		return withUnit(strings.TrimSpace(toString(v)), m.Unit), true
	}
	switch {
	case m.Money:
		return BRL(f), true
	case m.Decimals > 0:
		return withUnit(Fixed(f, m.Decimals), m.Unit), true
	default:
		return withUnit(Number(f), m.Unit), true
	}
}

func withUnit(s, unit string) string {
	if unit == "" {
		return s
	}
	return s + " " + unit
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) == 1 {
			return toString(t[0])
		}
	}
	return fmt.Sprint(v)
}
