package scheduler

import (
	"math/rand"
	"slices"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// Schedule 是一个候选课表，也就是遗传算法中的染色体
type Schedule struct {
	snapshot           *Snapshot
	countSelfConflicts bool

	classes   []Class
	conflicts int
	fitness   float64
	dirty     bool // 为 true 时需要重新计算适应度
}

func NewSchedule(snapshot *Snapshot, countSelfConflicts bool) *Schedule {
	return &Schedule{
		snapshot:           snapshot,
		countSelfConflicts: countSelfConflicts,
		classes:            make([]Class, 0, snapshot.ExpectedClassCount()),
		fitness:            -1,
		dirty:              true,
	}
}

// Initialize 随机初始化课表。
// 教室按最佳适配选择（剩余容量最小的那个），同一个 Schedule 内每个教室只分配给一个班级；
// 上课时间则从所有上课时间中有放回地随机抽取
func (s *Schedule) Initialize(rng *rand.Rand) error {
	s.classes = s.classes[:0]
	s.dirty = true

	availableRooms := slices.Clone(s.snapshot.rooms)
	classNum := 0

	for _, section := range s.snapshot.sections {
		department := s.snapshot.departments[s.snapshot.departmentIndex[section.DepartmentID]]

		// 找出容量足够且浪费最少的教室
		suitableRoomIndex := -1
		var minDiff int32
		for i, room := range availableRooms {
			if room.Capacity < section.Capacity {
				continue
			}
			diff := room.Capacity - section.Capacity
			if suitableRoomIndex == -1 || diff < minDiff {
				minDiff = diff
				suitableRoomIndex = i
			}
		}
		if suitableRoomIndex == -1 {
			return &CapacityExceededError{SectionID: section.ID, Capacity: section.Capacity}
		}

		room := availableRooms[suitableRoomIndex]
		availableRooms = slices.Delete(availableRooms, suitableRoomIndex, suitableRoomIndex+1)

		for _, courseID := range department.CourseIDs {
			course := s.snapshot.courses[s.snapshot.courseIndex[courseID]]
			for range course.Credit {
				c := newClass(classNum, department.ID, section.ID, course.ID)
				classNum++

				c.RoomID = room.ID
				c.InstructorID = course.InstructorID
				c.MeetingTime = rng.Intn(len(s.snapshot.meetingTimes))

				s.classes = append(s.classes, c)
			}
		}
	}

	return nil
}

func (s *Schedule) Len() int {
	return len(s.classes)
}

func (s *Schedule) Class(i int) Class {
	return s.classes[i]
}

// Classes 返回课程序列的副本
func (s *Schedule) Classes() []Class {
	return slices.Clone(s.classes)
}

// SetClass 整体替换第 i 节课
func (s *Schedule) SetClass(i int, c Class) {
	s.classes[i] = c
	s.dirty = true
}

func (s *Schedule) appendClass(c Class) {
	s.classes = append(s.classes, c)
	s.dirty = true
}

func (s *Schedule) Fitness() float64 {
	if s.dirty {
		s.fitness = s.calculateFitness()
		s.dirty = false
	}
	return s.fitness
}

func (s *Schedule) Conflicts() int {
	s.Fitness()
	return s.conflicts
}

/**
 * 计算课表的适应度
 * fitness = 1 / (1 + conflicts)
 * 冲突包括：
 * 		1. 同一个班级在同一天的同一时间有两节课
 * 		2. 同一个班级在同一天上了两次同一门课
 * 		3. 同一个教师在同一天的同一时间要给两个不同的班级上课
 */
func (s *Schedule) calculateFitness() float64 {
	conflicts := 0

	courseNames := make([]string, len(s.classes))
	for i, c := range s.classes {
		courseNames[i] = s.snapshot.courses[s.snapshot.courseIndex[c.CourseID]].Name
	}

	for i := range s.classes {
		a := &s.classes[i]
		aTime := &s.snapshot.meetingTimes[a.MeetingTime]

		start := i + 1
		if s.countSelfConflicts {
			start = i
		}

		for j := start; j < len(s.classes); j++ {
			b := &s.classes[j]
			bTime := &s.snapshot.meetingTimes[b.MeetingTime]

			// 三条规则都要求在同一天
			if aTime.Day != bTime.Day {
				continue
			}
			sameStart := aTime.StartTime == bTime.StartTime

			if a.SectionID == b.SectionID {
				if sameStart {
					conflicts++
				}
				if courseNames[i] == courseNames[j] {
					conflicts++
				}
			} else if sameStart && a.InstructorID == b.InstructorID {
				conflicts++
			}
		}
	}

	s.conflicts = conflicts
	return 1 / (1.0 + float64(conflicts))
}

// Assignments 把课程序列转换为对外暴露的排课结果
func (s *Schedule) Assignments() []domain.ClassAssignment {
	result := make([]domain.ClassAssignment, 0, len(s.classes))
	for _, c := range s.classes {
		mt := s.snapshot.meetingTimes[c.MeetingTime]
		result = append(result, domain.ClassAssignment{
			ClassID:         c.ID,
			DepartmentID:    c.DepartmentID,
			SectionID:       c.SectionID,
			CourseID:        c.CourseID,
			InstructorID:    c.InstructorID,
			RoomID:          c.RoomID,
			MeetingWindowID: mt.WindowID,
			Day:             mt.Day,
			StartTime:       mt.StartTime,
			EndTime:         mt.EndTime,
		})
	}
	return result
}
