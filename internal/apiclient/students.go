package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

func studentPath(id int64) string {
	return "/api/students/" + strconv.FormatInt(id, 10) + "/"
}

func (c *Client) ListStudents(ctx context.Context, sess *session.Session) (ListResult[student.Student], error) {
	raw, err := c.doRaw(ctx, sess, request{method: http.MethodGet, path: "/api/students/"})
	if err != nil {
		return ListResult[student.Student]{}, err
	}
	return NormalizeList[student.Student](raw), nil
}

func (c *Client) GetStudent(ctx context.Context, sess *session.Session, id int64) (student.Student, error) {
	var out student.Student
	err := c.doJSON(ctx, sess, request{method: http.MethodGet, path: studentPath(id)}, &out)
	return out, err
}

// CreateStudent posts a submission payload and returns the stored record.
func (c *Client) CreateStudent(ctx context.Context, sess *session.Session, payload any) (student.Student, error) {
	var out student.Student
	req, err := jsonRequest(http.MethodPost, "/api/students/", payload)
	if err != nil {
		return out, err
	}
	err = c.doJSON(ctx, sess, req, &out)
	return out, err
}

// UpdateStudent replaces the whole record.
func (c *Client) UpdateStudent(ctx context.Context, sess *session.Session, id int64, payload any) (student.Student, error) {
	var out student.Student
	req, err := jsonRequest(http.MethodPut, studentPath(id), payload)
	if err != nil {
		return out, err
	}
	err = c.doJSON(ctx, sess, req, &out)
	return out, err
}

func (c *Client) DeleteStudent(ctx context.Context, sess *session.Session, id int64) error {
	return c.doJSON(ctx, sess, request{method: http.MethodDelete, path: studentPath(id)}, nil)
}

func (c *Client) Details(ctx context.Context, sess *session.Session) (student.Details, error) {
	var out student.Details
	err := c.doJSON(ctx, sess, request{method: http.MethodGet, path: "/api/details/"}, &out)
	return out, err
}
