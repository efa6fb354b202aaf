package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
)

const (
	departmentsCollection = "departments"
	coursesCollection     = "courses"
)

// AcademicRepository covers the department/course lookups the auth and
// notification paths need; full academic CRUD lives with the admin tooling.
type AcademicRepository struct {
	mongo       *Mongo
	departments *mongo.Collection
	courses     *mongo.Collection
}

func NewAcademicRepository(m *Mongo) *AcademicRepository {
	return &AcademicRepository{
		mongo:       m,
		departments: m.DB.Collection(departmentsCollection),
		courses:     m.DB.Collection(coursesCollection),
	}
}

func (r *AcademicRepository) FindDepartment(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	var dept models.Department
	err := r.departments.FindOne(ctx, bson.M{"_id": id}).Decode(&dept)
	if err != nil {
		return nil, wrapErr(err, "Department not found")
	}
	return &dept, nil
}

// CourseInDepartment reports whether the course belongs to the department.
func (r *AcademicRepository) CourseInDepartment(ctx context.Context, courseID, departmentID primitive.ObjectID) (bool, error) {
	ctx, cancel := r.mongo.withTimeout(ctx)
	defer cancel()

	n, err := r.courses.CountDocuments(ctx, bson.M{"_id": courseID, "department": departmentID})
	if err != nil {
		return false, wrapErr(err, "")
	}
	return n > 0, nil
}
