package enrolments

import (
	"log"
	"net/http"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
)

func RegisterEnrolmentsRoutes(r *gin.RouterGroup) {
	r.GET("/my-courses", GetMyCourses)
	r.GET("/enrolments", GetEnrolments)
}

// GetMyCourses returns the logged-in student's enrolments with the course
// titles resolved from the catalog.
func GetMyCourses(c *gin.Context) {
	studentInterface, exists := c.Get("student")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Student not found in context"})
		return
	}
	student := studentInterface.(models.Student)

	var enrolments []models.Enrolment
	if err := utils.DB.Where("student_id = ?", student.ID).Find(&enrolments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch enrolments"})
		return
	}

	titles := map[string]string{}
	if courses, err := utils.GetCourses(); err == nil {
		for _, course := range courses {
			titles[course.ID] = course.Title
		}
	} else {
		log.Printf("Failed to fetch course titles: %v", err)
	}

	myCourses := make([]gin.H, 0, len(enrolments))
	for _, enrolment := range enrolments {
		myCourses = append(myCourses, gin.H{
			"id":          enrolment.ID,
			"course_id":   enrolment.CourseID,
			"title":       titles[enrolment.CourseID],
			"enrolled_at": enrolment.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"courses": myCourses,
	})
}

// GetEnrolments lists every enrolment with the paying student, for the admin
// dashboard.
func GetEnrolments(c *gin.Context) {
	var enrolments []models.Enrolment
	if err := utils.DB.Order("created_at DESC").Find(&enrolments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch enrolments"})
		return
	}

	studentIDs := make([]uint, 0, len(enrolments))
	for _, enrolment := range enrolments {
		studentIDs = append(studentIDs, enrolment.StudentID)
	}

	students := map[uint]models.Student{}
	if len(studentIDs) > 0 {
		var rows []models.Student
		if err := utils.DB.Where("id IN ?", studentIDs).Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch students"})
			return
		}
		for _, row := range rows {
			students[row.ID] = row
		}
	}

	result := make([]gin.H, 0, len(enrolments))
	for _, enrolment := range enrolments {
		student := students[enrolment.StudentID]
		result = append(result, gin.H{
			"id":         enrolment.ID,
			"course_id":  enrolment.CourseID,
			"created_at": enrolment.CreatedAt,
			"student": gin.H{
				"id":         student.ID,
				"first_name": student.FirstName,
				"last_name":  student.LastName,
				"phone":      student.Phone,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"enrolments": result,
	})
}
