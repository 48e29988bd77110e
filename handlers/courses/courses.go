package courses

import (
	"net/http"

	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
)

func RegisterCoursesRoutes(r *gin.RouterGroup) {
	r.GET("/courses", GetCourses)
	r.GET("/courses/:id", GetCourse)
}

// GetCourses lists the catalog. Courses live in the headless CMS, not in the
// portal database; this is a read-through proxy.
func GetCourses(c *gin.Context) {
	courses, err := utils.GetCourses()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch courses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
	})
}

func GetCourse(c *gin.Context) {
	course, err := utils.GetCourseByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch course"})
		return
	}
	if course == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"course": course,
	})
}
