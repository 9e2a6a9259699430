package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chashi-bhai/server/internal/agent/model"
)

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// round2 formats a coordinate like Python's round(x, 2) would print it:
// no trailing zeros, so 23.8 and 23.80 share a key.
func round2(v float64) string {
	r := math.Round(v*100) / 100
	s := fmt.Sprintf("%.2f", r)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// DatasetKey buckets coordinates to 2 decimals and time to one day.
func DatasetKey(ds model.Dataset, lat, lon float64, daysBack int, day time.Time) string {
	if daysBack <= 0 {
		daysBack = 7
	}
	return fmt.Sprintf("nasa_%s_%s_%s_%d_%s", ds, round2(lat), round2(lon), daysBack, day.Format("2006-01-02"))
}

// TranslationKey is keyed by direction and a text digest.
func TranslationKey(src, tgt, text string) string {
	return fmt.Sprintf("trans_%s_%s_%s", src, tgt, md5Hex(text)[:16])
}

// TranslateBackKey caches the outbound translation of an answer.
func TranslateBackKey(lang, text string) string {
	return fmt.Sprintf("tb_%s_%s", lang, md5Hex(text))
}

// LocationKey caches an IP resolution.
func LocationKey(ip string) string {
	return "location_" + ip
}

// ResponseKey identifies a full answer by query and the datasets that backed it.
func ResponseKey(query string, datasets []model.Dataset) string {
	names := model.DatasetNames(datasets)
	return "response_" + md5Hex(query+"["+strings.Join(names, ",")+"]")
}

// SearchKey caches one engine's snippet for a query.
func SearchKey(engine model.SearchEngine, query string) string {
	return fmt.Sprintf("search_%s_%s", strings.ToLower(engine.String()), md5Hex(query))
}

// ForecastKey buckets a forecast by point and horizon.
func ForecastKey(provider string, lat, lon float64, days int) string {
	return fmt.Sprintf("forecast_%s_%s_%s_%d", provider, round2(lat), round2(lon), days)
}

// StructKey hashes structured input with map keys sorted at every level, so
// two functionally identical parameter sets share a key.
func StructKey(prefix string, v any) (string, error) {
	canon, err := canonicalJSON(v)
	if err != nil {
		return "", err
	}
	return prefix + "_" + md5Hex(canon), nil
}

func canonicalJSON(v any) (string, error) {
	// Round-trip through a generic value: struct field order disappears and
	// encoding/json writes map keys sorted at every depth.
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical json: %w", err)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return "", fmt.Errorf("canonical json: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("canonical json: %w", err)
	}
	return string(out), nil
}

// namespace is the key prefix up to the first underscore, used as a metric label.
func namespace(key string) string {
	if i := strings.IndexByte(key, '_'); i > 0 {
		return key[:i]
	}
	return key
}
