package model

import "time"

// ScheduleEntry 课表记录，对应 schedule_entries
// 唯一键 (entry_date, lesson_number, class_id)
type ScheduleEntry struct {
	EntryID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	EntryDate     time.Time  `gorm:"type:date;not null"                             json:"entry_date"`
	LessonNumber  int        `gorm:"type:smallint;not null"                         json:"lesson_number"`
	StartTime     string     `gorm:"type:time;not null"                             json:"start_time"`
	EndTime       string     `gorm:"type:time;not null"                             json:"end_time"`
	ClassID       string     `gorm:"type:uuid;not null"                             json:"class_id"`
	SubjectID     string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	TeacherID     string     `gorm:"type:uuid;not null"                             json:"teacher_id"`
	ClassroomID   string     `gorm:"type:uuid;not null"                             json:"classroom_id"`
	IsPublished   bool       `gorm:"not null;default:false"                         json:"is_published"`
	IsReplacement bool       `gorm:"not null;default:false"                         json:"is_replacement"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	BaseModel

	// 关联
	Class     *Class     `gorm:"foreignKey:ClassID;references:ClassID"         json:"class,omitempty"`
	Subject   *Subject   `gorm:"foreignKey:SubjectID;references:SubjectID"     json:"subject,omitempty"`
	Teacher   *Teacher   `gorm:"foreignKey:TeacherID;references:TeacherID"     json:"teacher,omitempty"`
	Classroom *Classroom `gorm:"foreignKey:ClassroomID;references:ClassroomID" json:"classroom,omitempty"`
}

func (ScheduleEntry) TableName() string { return "schedule_entries" }

// ClassName 关联班级名，未预加载时为空
func (e *ScheduleEntry) ClassName() string {
	if e.Class == nil {
		return ""
	}
	return e.Class.Name
}

// SubjectName 关联学科名
func (e *ScheduleEntry) SubjectName() string {
	if e.Subject == nil {
		return ""
	}
	return e.Subject.Name
}

// TeacherName 关联教师显示名
func (e *ScheduleEntry) TeacherName() string {
	if e.Teacher == nil {
		return ""
	}
	return e.Teacher.FullName()
}

// ClassroomNumber 关联教室号
func (e *ScheduleEntry) ClassroomNumber() string {
	if e.Classroom == nil {
		return ""
	}
	return e.Classroom.Number
}
