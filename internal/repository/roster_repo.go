package repository

import (
	"context"

	"gorm.io/gorm"

	"school-manager/internal/model"
)

// 花名册只读：班级、学科、教师、教室的增删改不在本服务内

// ClassRepository 班级数据访问接口
type ClassRepository interface {
	List(ctx context.Context) ([]model.Class, error)
	GetByName(ctx context.Context, name string) (*model.Class, error)
}

// SubjectRepository 学科数据访问接口
type SubjectRepository interface {
	List(ctx context.Context) ([]model.Subject, error)
}

// TeacherRepository 教师数据访问接口
type TeacherRepository interface {
	List(ctx context.Context) ([]model.Teacher, error)
}

// ClassroomRepository 教室数据访问接口
type ClassroomRepository interface {
	List(ctx context.Context) ([]model.Classroom, error)
}

// ── Class ──

type classRepo struct {
	db *gorm.DB
}

// NewClassRepo 创建 ClassRepository 实例
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

// List 返回全部班级；展示顺序由 schedule.SortClassNames 决定
func (r *classRepo) List(ctx context.Context) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.WithContext(ctx).Order("name ASC").Find(&classes).Error
	return classes, err
}

func (r *classRepo) GetByName(ctx context.Context, name string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// ── Subject ──

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo 创建 SubjectRepository 实例
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) List(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error
	return subjects, err
}

// ── Teacher ──

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) List(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.db.WithContext(ctx).
		Order("last_name ASC, first_name ASC, middle_name ASC").
		Find(&teachers).Error
	return teachers, err
}

// ── Classroom ──

type classroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo 创建 ClassroomRepository 实例
func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

func (r *classroomRepo) List(ctx context.Context) ([]model.Classroom, error) {
	var rooms []model.Classroom
	err := r.db.WithContext(ctx).Order("number ASC").Find(&rooms).Error
	return rooms, err
}
