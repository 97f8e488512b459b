package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// KPIGenerationKey — счётчик поколений агрегатов. Любая запись в рассрочки увеличивает его.
const KPIGenerationKey = "kpi:generation"

// FeePlanKey — ключ плана взносов вместе с графиком.
func FeePlanKey(id int64) string {
	return fmt.Sprintf("fee_plan:%d", id)
}

// BreakdownKey — ключ разбивки по статусам для фильтра в поколении gen.
func BreakdownKey(gen int64, filter any) (string, error) {
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("cache.BreakdownKey: %w", err)
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("kpi:%d:breakdown:%s", gen, hex.EncodeToString(sum[:16])), nil
}
