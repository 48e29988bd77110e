package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Course is the slice of the CMS course document the server cares about.
type Course struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
}

var catalogClient = &http.Client{Timeout: 10 * time.Second}

// catalogQueryURL builds a query URL against the headless CMS. COURSE_API_URL
// points at the dataset's query endpoint.
func catalogQueryURL(query string) string {
	return os.Getenv("COURSE_API_URL") + "?query=" + url.QueryEscape(query)
}

func queryCatalog(query string, result interface{}) error {
	res, err := catalogClient.Get(catalogQueryURL(query))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("course catalog returned status %d", res.StatusCode)
	}

	var body struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return err
	}

	return json.Unmarshal(body.Result, result)
}

// GetCourses fetches the full course list from the CMS.
func GetCourses() ([]Course, error) {
	var courses []Course
	if err := queryCatalog(`*[_type == "course"]{_id,title}`, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourseIDs fetches just the course ids, used to validate the id the
// enrollment wizard was opened with.
func GetCourseIDs() ([]string, error) {
	courses, err := GetCourses()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}
	return ids, nil
}

// GetCourseByID fetches a single course document.
func GetCourseByID(id string) (*Course, error) {
	var courses []Course
	query := fmt.Sprintf(`*[_type == "course" && _id == %q]{_id,title}`, id)
	if err := queryCatalog(query, &courses); err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, nil
	}
	return &courses[0], nil
}
