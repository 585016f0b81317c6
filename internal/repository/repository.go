package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Class         ClassRepository
	Subject       SubjectRepository
	Teacher       TeacherRepository
	Classroom     ClassroomRepository
	ScheduleEntry ScheduleEntryRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Class:         NewClassRepo(db),
		Subject:       NewSubjectRepo(db),
		Teacher:       NewTeacherRepo(db),
		Classroom:     NewClassroomRepo(db),
		ScheduleEntry: NewScheduleEntryRepo(db),
	}
}
