package model

import "strings"

// Class 班级表，对应 classes
type Class struct {
	ClassID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name    string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"name"`
	BaseModel
}

func (Class) TableName() string { return "classes" }

// Subject 学科表，对应 subjects
type Subject struct {
	SubjectID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name      string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	BaseModel
}

func (Subject) TableName() string { return "subjects" }

// Teacher 教师表，对应 teachers
type Teacher struct {
	TeacherID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	LastName   string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	FirstName  string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	MiddleName string `gorm:"type:varchar(100);not null;default:''"          json:"middle_name"`
	BaseModel
}

func (Teacher) TableName() string { return "teachers" }

// FullName 显示名：姓 名 父称，空段省略
func (t Teacher) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.LastName, t.FirstName, t.MiddleName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Classroom 教室表，对应 classrooms
type Classroom struct {
	ClassroomID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"classroom_id"`
	Number      string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"number"`
	BaseModel
}

func (Classroom) TableName() string { return "classrooms" }
