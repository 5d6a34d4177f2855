package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

var courseSubjects = []string{
	"高等数学", "线性代数", "概率论", "大学物理", "数据结构", "操作系统",
	"计算机网络", "编译原理", "数据库系统", "软件工程", "离散数学", "电路分析",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateCodeFromChineseName 用姓名的拼音前缀加上随机数字生成工号
func GenerateCodeFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	code := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		code += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		code += string(digits[rand.Intn(len(digits))])
	}

	return code
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

var upperLetters = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ")

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = upperLetters[rand.Intn(len(upperLetters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

func GenerateRandomInstructor() *domain.Instructor {
	name := GenerateRandomChineseName()
	return &domain.Instructor{
		Code: GenerateCodeFromChineseName(name),
		Name: name,
	}
}

func GenerateRandomRoom() *domain.Room {
	return &domain.Room{
		Code:     "R" + GenerateRandomID(1, 3),
		Capacity: int32(rand.Intn(8)+3) * 10, // 30~100
	}
}

// GenerateMeetingWindows 从 08:00 开始生成 n 个互不重叠的时间段，每段 duration 分钟，间隔 10 分钟
func GenerateMeetingWindows(n int, duration int) []*domain.MeetingWindow {
	windows := make([]*domain.MeetingWindow, 0, n)
	start := 8 * 60
	for i := 0; i < n; i++ {
		end := start + duration
		windows = append(windows, &domain.MeetingWindow{
			StartTime: fmt.Sprintf("%02d:%02d:00", start/60, start%60),
			EndTime:   fmt.Sprintf("%02d:%02d:00", end/60, end%60),
		})
		start = end + 10
	}
	return windows
}

func GenerateRandomCourse(instructorID int64) *domain.Course {
	subject := courseSubjects[rand.Intn(len(courseSubjects))]
	code := GenerateRandomID(2, 3)
	return &domain.Course{
		Code:         code,
		Name:         subject + code,
		Credit:       int32(rand.Intn(3) + 1),
		InstructorID: instructorID,
	}
}

func GenerateRandomSection(departmentID int64) *domain.Section {
	return &domain.Section{
		Code:         "S" + GenerateRandomID(1, 3),
		Capacity:     int32(rand.Intn(6)+2) * 10, // 20~70
		DepartmentID: departmentID,
	}
}

// 使用 Fisher-Yates 洗牌算法来生成一个随机子集
func GenerateRandomSubset(arr []int64) []int64 {
	arrCopy := append([]int64{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	if len(arrCopy) == 0 {
		return arrCopy
	}
	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}
