package utils

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

const timeLayout = "15:04:05"

// ValidateMeetingWindow 检查时间段的格式以及结束时间是否大于开始时间
func ValidateMeetingWindow(w *domain.MeetingWindow) error {
	startTime, err := time.Parse(timeLayout, w.StartTime)
	if err != nil {
		return fmt.Errorf("时间段 %d 的开始时间格式错误", w.ID)
	}
	endTime, err := time.Parse(timeLayout, w.EndTime)
	if err != nil {
		return fmt.Errorf("时间段 %d 的结束时间格式错误", w.ID)
	}
	if !endTime.After(startTime) {
		return fmt.Errorf("时间段 %d 的结束时间必须大于开始时间", w.ID)
	}
	return nil
}

// NormalizeClockTime 把 "8:00:00" 这样的时间统一为 "08:00:00"
func NormalizeClockTime(s string) (string, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return "", err
	}
	return t.Format(timeLayout), nil
}

// ValidateMeetingWindows 检查每个时间段是否合法，以及各个时间段之间是否重叠
func ValidateMeetingWindows(windows []*domain.MeetingWindow) error {
	for _, w := range windows {
		if err := ValidateMeetingWindow(w); err != nil {
			return err
		}
	}

	for i := 0; i < len(windows); i++ {
		iStartTime, _ := time.Parse(timeLayout, windows[i].StartTime)
		iEndTime, _ := time.Parse(timeLayout, windows[i].EndTime)

		for j := i + 1; j < len(windows); j++ {
			jStartTime, _ := time.Parse(timeLayout, windows[j].StartTime)
			jEndTime, _ := time.Parse(timeLayout, windows[j].EndTime)

			if jStartTime.Before(iEndTime) && iStartTime.Before(jEndTime) {
				return fmt.Errorf("时间段 %s-%s 和时间段 %s-%s 重叠", windows[i].StartTime, windows[i].EndTime, windows[j].StartTime, windows[j].EndTime)
			}
		}
	}
	return nil
}

// ValidateSectionRooms 检查每个班级的所有课是否都在同一个教室，且不同班级不共用教室
func ValidateSectionRooms(classes []domain.ClassAssignment) error {
	sectionRoom := make(map[int64]int64)
	roomSection := make(map[int64]int64)

	for _, c := range classes {
		if roomID, exists := sectionRoom[c.SectionID]; exists {
			if roomID != c.RoomID {
				return fmt.Errorf("班级 %d 被分配到了多个教室", c.SectionID)
			}
			continue
		}
		if sectionID, exists := roomSection[c.RoomID]; exists && sectionID != c.SectionID {
			return fmt.Errorf("教室 %d 被分配给了班级 %d 和班级 %d", c.RoomID, sectionID, c.SectionID)
		}
		sectionRoom[c.SectionID] = c.RoomID
		roomSection[c.RoomID] = c.SectionID
	}

	return nil
}

// ValidateGenerationParameters 检查调用方传入的遗传算法参数之间的关系
func ValidateGenerationParameters(p *domain.GenerationParameters) error {
	if p.EliteCount > p.PopulationSize {
		return fmt.Errorf("精英数量不能大于种群大小")
	}
	return nil
}
