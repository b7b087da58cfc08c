// Package shopcontent 解析商品 content 字段。
//
// content 有两种写法：JSON 对象，或旧版逐行的 "key: value" 文本。
// 两种写法识别的 key 相同，每一类按列出的顺序取第一个能解析的值。
package shopcontent

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrUnparsable   = errors.New("商品内容无法解析")
	ErrInvalidValue = errors.New("商品内容取值无效")
)

const (
	MiB int64 = 1024 * 1024
	GiB       = 1024 * MiB
	TiB       = 1024 * GiB
)

var (
	trafficKeys     = []string{"traffic", "flow", "流量"}
	classKeys       = []string{"class", "等级"}
	expireKeys      = []string{"expire", "expiry", "有效期", "expire_in", "账户有效期"}
	classExpireKeys = []string{"class_expire", "等级有效期"}

	trafficPattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(GB|GiB|MB|MiB|TB|TiB)?\s*$`)
	classPattern   = regexp.MustCompile(`^\s*(\d+)`)
	daysPattern    = regexp.MustCompile(`(?i)^\s*(\d+)\s*(days|day|天)?\s*$`)
)

var unitBytes = map[string]int64{
	"":    GiB,
	"gb":  GiB,
	"gib": GiB,
	"mb":  MiB,
	"mib": MiB,
	"tb":  TiB,
	"tib": TiB,
}

// ParsedEffects 商品生效内容，未声明的项为 nil
type ParsedEffects struct {
	TrafficBytes    *int64
	Class           *int
	ExpireDays      *int
	ClassExpireDays *int
}

// IsEmpty 商品没有任何效果
func (e ParsedEffects) IsEmpty() bool {
	return e.TrafficBytes == nil && e.Class == nil && e.ExpireDays == nil && e.ClassExpireDays == nil
}

// Parse 解析商品内容
func Parse(content string) (ParsedEffects, error) {
	var effects ParsedEffects

	content = strings.TrimSpace(content)
	if content == "" {
		return effects, nil
	}

	fields, ok := parseJSON(content)
	if !ok {
		fields = parseLines(content)
		if len(fields) == 0 {
			return effects, ErrUnparsable
		}
	}

	if v, found, err := lookup(fields, trafficKeys, parseTraffic); err != nil {
		return effects, err
	} else if found {
		effects.TrafficBytes = &v
	}

	if v, found, err := lookup(fields, classKeys, parseClass); err != nil {
		return effects, err
	} else if found {
		class := int(v)
		effects.Class = &class
	}

	if v, found, err := lookup(fields, expireKeys, parseDays); err != nil {
		return effects, err
	} else if found {
		days := int(v)
		effects.ExpireDays = &days
	}

	if v, found, err := lookup(fields, classExpireKeys, parseDays); err != nil {
		return effects, err
	} else if found {
		days := int(v)
		effects.ClassExpireDays = &days
	}

	return effects, nil
}

// ParseTraffic 把 "100GB" / "512 MiB" / "2TB" 转换为字节数，无单位按 GB 计
func ParseTraffic(s string) (int64, error) {
	return parseTraffic(s)
}

func parseJSON(content string) (map[string]string, bool) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, false
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		key := normalizeKey(k)
		switch val := v.(type) {
		case string:
			fields[key] = strings.TrimSpace(val)
		case float64:
			fields[key] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return fields, true
}

func parseLines(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// 兼容全角冒号
		line = strings.Replace(line, "：", ":", 1)
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}

		key := normalizeKey(line[:idx])
		if _, exists := fields[key]; exists {
			continue
		}
		fields[key] = strings.TrimSpace(line[idx+1:])
	}
	return fields
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// lookup 按顺序查找 key，第一个存在的 key 决定结果
func lookup(fields map[string]string, keys []string, parse func(string) (int64, error)) (int64, bool, error) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		v, err := parse(raw)
		if err != nil {
			return 0, false, fmt.Errorf("%s=%q: %w", key, raw, err)
		}
		return v, true, nil
	}
	return 0, false, nil
}

func parseTraffic(s string) (int64, error) {
	m := trafficPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidValue
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value <= 0 {
		return 0, ErrInvalidValue
	}

	mult, ok := unitBytes[strings.ToLower(m[2])]
	if !ok {
		return 0, ErrInvalidValue
	}

	bytes := math.Round(value * float64(mult))
	if bytes < 1 || bytes >= math.MaxInt64 {
		return 0, ErrInvalidValue
	}
	return int64(bytes), nil
}

func parseClass(s string) (int64, error) {
	m := classPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidValue
	}
	return strconv.ParseInt(m[1], 10, 32)
}

func parseDays(s string) (int64, error) {
	m := daysPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidValue
	}
	return strconv.ParseInt(m[1], 10, 32)
}
