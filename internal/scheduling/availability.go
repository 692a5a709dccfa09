package scheduling

import (
	"strings"
	"time"
)

// SlotLayout — формат, в котором врач хранит свои слоты доступности.
const SlotLayout = "2006-01-02 15:04:05"

// SlotTolerance — окно совпадения запрошенного времени со слотом.
// Слот моделирует часовой блок приёма, начинающийся в его номинальный момент.
const SlotTolerance = time.Hour

// IsAvailable отвечает, покрывается ли запрошенное время одним из
// слотов врача. Совпадение — по модулю разницы, то есть окно
// симметричное: запрос на час раньше слота тоже проходит.
// Это наблюдаемое поведение, на которое завязаны существующие
// бронирования; не сужать без отдельного решения.
// Нечитаемые слоты пропускаются, пустой список — всегда false.
func IsAvailable(slots []string, requested time.Time) bool {
	for _, raw := range slots {
		slotAt, err := time.ParseInLocation(SlotLayout, strings.TrimSpace(raw), time.UTC)
		if err != nil {
			continue
		}
		diff := requested.Sub(slotAt)
		if diff < 0 {
			diff = -diff
		}
		if diff <= SlotTolerance {
			return true
		}
	}
	return false
}
