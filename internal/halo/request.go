package halo

import (
	"net/url"
)

// Context header names the orchestration API expects alongside the tokens.
const (
	headerClassSlug   = "current-class-slug-id"
	headerCourseClass = "current-course-class-id"
)

// Request is a builder for Halo API calls. Auth and context tokens are
// attached by the Client at send time, never stored on the Request, so a
// retry after refresh automatically picks up the new credentials.
//
// Usage:
//
//	data, err := client.Query(ctx, halo.NewRequest("GradeOverview").
//		Query(halo.QueryGradeOverview).
//		Variables(map[string]any{"courseClassSlugId": slug}).
//		ClassSlug(slug))
type Request struct {
	operation string
	query     string
	variables map[string]any
	headers   map[string]string
	form      url.Values
	jsonBody  any
}

// NewRequest creates a request builder for the named operation.
func NewRequest(operation string) *Request {
	return &Request{
		operation: operation,
		variables: map[string]any{},
		headers:   map[string]string{},
	}
}

// Query sets the GraphQL query document.
func (r *Request) Query(query string) *Request {
	r.query = query
	return r
}

// Variables sets all GraphQL variables at once.
func (r *Request) Variables(vars map[string]any) *Request {
	r.variables = vars
	return r
}

// ClassSlug adds the current-class-slug-id header.
func (r *Request) ClassSlug(slug string) *Request {
	r.headers[headerClassSlug] = slug
	return r
}

// CourseClass adds the current-course-class-id header.
func (r *Request) CourseClass(courseClassID string) *Request {
	r.headers[headerCourseClass] = courseClassID
	return r
}

// Form sets the form body for form-encoded orchestration posts.
func (r *Request) Form(values url.Values) *Request {
	r.form = values
	return r
}

// JSONBody sets the JSON body for REST orchestration posts.
func (r *Request) JSONBody(body any) *Request {
	r.jsonBody = body
	return r
}
