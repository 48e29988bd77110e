package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeCatalog(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("COURSE_API_URL", server.URL)
}

func TestGetCourses(t *testing.T) {
	newFakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("query"), `_type == "course"`)
		w.Write([]byte(`{"result":[{"_id":"course-1","title":"Intro to Go"},{"_id":"course-2","title":"Databases"}]}`))
	})

	courses, err := GetCourses()
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "course-1", courses[0].ID)
	assert.Equal(t, "Intro to Go", courses[0].Title)
}

func TestGetCourseIDs(t *testing.T) {
	newFakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"_id":"course-1"},{"_id":"course-2"}]}`))
	})

	ids, err := GetCourseIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"course-1", "course-2"}, ids)
}

func TestGetCourseByIDMissing(t *testing.T) {
	newFakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[]}`))
	})

	course, err := GetCourseByID("nope")
	require.NoError(t, err)
	assert.Nil(t, course)
}

func TestCatalogErrorStatus(t *testing.T) {
	newFakeCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := GetCourses()
	assert.Error(t, err)
}
