package halo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway serves canned GraphQL data keyed by operation name and records
// REST posts by path.
type fakeGateway struct {
	mux     *http.ServeMux
	server  *httptest.Server
	data    map[string]string
	queries atomic.Int32
}

func newFakeGateway(t *testing.T, data map[string]string) *fakeGateway {
	t.Helper()
	g := &fakeGateway{mux: http.NewServeMux(), data: data}
	g.mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		g.queries.Add(1)
		var payload struct {
			OperationName string `json:"operationName"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		body, ok := g.data[payload.OperationName]
		if !ok {
			w.Write([]byte(`{"errors":[{"message":"unknown operation"}]}`))
			return
		}
		w.Write([]byte(`{"data":` + body + `}`))
	})
	g.server = httptest.NewServer(g.mux)
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGateway) client(t *testing.T) *Client {
	t.Helper()
	client, _ := newTestClient(t, g.server.URL+"/graphql", nil)
	client.baseURL = g.server.URL
	return client
}

func TestListClasses(t *testing.T) {
	gw := newFakeGateway(t, map[string]string{
		"getCourseClassesForUser": `{"getCourseClassesForUser":{"courseClasses":[
			{"id":"cc-1","slugId":"bio-101-slug","name":"Biology 101","classCode":"BIO-101",
			 "startDate":"2026-08-03T00:00:00Z","endDate":"2026-09-27T00:00:00Z","stage":"CURRENT",
			 "instructors":[{"user":{"firstName":"Ada","lastName":"Lovelace"}}]}
		]}}`,
	})

	classes, err := gw.client(t).ListClasses(t.Context())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "bio-101-slug", classes[0].SlugID)
	assert.Equal(t, "2026-08-03", classes[0].StartDate)
	assert.Equal(t, []string{"Ada Lovelace"}, classes[0].Instructors)
}

func TestGrades_EmptyOverview(t *testing.T) {
	gw := newFakeGateway(t, map[string]string{
		"GradeOverview": `{"gradeOverview":[]}`,
	})

	report, err := gw.client(t).Grades(t.Context(), "bio-101-slug", "")
	require.NoError(t, err)
	assert.Empty(t, report.Items)
}

func TestNotifications_MergesForumAndInboxCounts(t *testing.T) {
	gw := newFakeGateway(t, map[string]string{
		"GetForumNotifications": `{"classes":{"forumTypes":{
			"ANNOUNCEMENTS":{"classes":[{"classId":"c-1","count":2}]},
			"DQ":{"classes":[{"classId":"c-1","count":5},{"classId":"c-2","count":0}]}
		}}}`,
		"GetInboxNotifications": `{"classes":{"forumTypes":{
			"INBOX":{"count":3,"classes":[{"classId":"c-1","count":3}]}
		}}}`,
	})

	n, err := gw.client(t).Notifications(t.Context(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, []NotificationCount{{ClassID: "c-1", Count: 2}}, n.Announcements)
	assert.Equal(t, []NotificationCount{{ClassID: "c-1", Count: 5}}, n.Discussions)
	assert.Equal(t, 3, n.InboxTotal)
	assert.Equal(t, int32(2), gw.queries.Load(), "both notification queries issued")
}

func TestInbox_FlattensThreads(t *testing.T) {
	gw := newFakeGateway(t, map[string]string{
		"GetInboxLeftPanel": `{"getInboxLeftPanel":[{
			"courseClassId":"c-1",
			"forums":[{
				"forumId":"f-1",
				"lastPost":{
					"isReplied":false,
					"recipient":{"firstName":"Ada","lastName":"Lovelace"},
					"post":{"content":"<p>See me after class</p>","publishDate":"2026-08-21T09:00:00Z"}
				}
			}]
		}]}`,
	})

	threads, err := gw.client(t).Inbox(t.Context())
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "f-1", threads[0].ForumID)
	assert.Equal(t, "c-1", threads[0].ClassID)
	assert.Equal(t, "Ada Lovelace", threads[0].With)
	assert.Equal(t, "See me after class", threads[0].LastMessage)
	assert.True(t, threads[0].Unanswered)
}

func TestDecode_MissingField(t *testing.T) {
	var v struct{}
	err := decode(json.RawMessage(`{"other":1}`), "wanted", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"wanted"`)

	err = decode(json.RawMessage(`{"wanted":null}`), "wanted", &v)
	require.Error(t, err)
}

var testClass = ClassContext{ID: "cc-1", SlugID: "bio-101-slug", Name: "Biology 101"}

func TestSubmitter_UploadFlow(t *testing.T) {
	var uploaded []byte
	var statusConfirmed bool
	gw := newFakeGateway(t, map[string]string{
		"BulkAssignmentResource": `{"bulkAddAssignmentSubmissionResource":{"id":"sub-1"}}`,
	})
	gw.mux.HandleFunc("POST "+presignPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bio-101-slug", r.Header.Get("current-class-slug-id"))
		assert.Equal(t, "cc-1", r.Header.Get("current-course-class-id"))
		var body []presignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "assignment_submission", body[0].Type)
		assert.Equal(t, "FILE", body[0].Kind)
		assert.Equal(t, "essay.pdf", body[0].FileName)
		assert.Equal(t, len("pdf-bytes"), body[0].FileSize)
		assert.Equal(t, "pdf", body[0].FileType)
		assert.Equal(t, []string{"S3"}, body[0].StorageProviderEnum)
		assert.Equal(t, "cc-1", body[0].ResourceSignature.CourseClassID)
		assert.Equal(t, "assess-1", body[0].ResourceSignature.CourseClassAssessmentID)
		w.Write([]byte(`[{"resourceId":"res-1","s3UploadUrl":"` + gw.server.URL + `/storage/res-1"}]`))
	})
	gw.mux.HandleFunc("PUT /storage/res-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		var err error
		uploaded, err = io.ReadAll(r.Body)
		require.NoError(t, err)
	})
	gw.mux.HandleFunc("POST "+uploadStatusPath, func(w http.ResponseWriter, r *http.Request) {
		var body []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "res-1", body[0]["resourceId"])
		assert.Equal(t, "COMPLETED", body[0]["status"])
		assert.Equal(t, []any{"S3"}, body[0]["storageProviderEnum"])
		statusConfirmed = true
		w.Write([]byte(`{"status":"ok"}`))
	})

	submitter := NewSubmitter(gw.client(t))
	resourceID, err := submitter.UploadFile(t.Context(), testClass, "assess-1", "essay.pdf", []byte("pdf-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "res-1", resourceID)
	assert.Equal(t, "pdf-bytes", string(uploaded))
	assert.True(t, statusConfirmed)
	assert.Equal(t, []string{"res-1"}, submitter.Attached("assess-1"))
}

func TestSubmitter_PresignResponseWithoutUploadURL(t *testing.T) {
	gw := newFakeGateway(t, nil)
	gw.mux.HandleFunc("POST "+presignPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"resourceId":"res-1"}]`))
	})

	submitter := NewSubmitter(gw.client(t))
	_, err := submitter.UploadFile(t.Context(), testClass, "assess-1", "essay.docx", []byte("doc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no upload url")
}

func TestSubmitter_SubmitContract(t *testing.T) {
	gw := newFakeGateway(t, map[string]string{
		"CourseClassAssessment": `{"assessment":{"id":"assess-1","title":"Week 3 Essay","requiresLopesWrite":true}}`,
		"AssignmentSubmission": `{"assignmentSubmission":{"id":"sub-1","status":"IN_PROGRESS","resources":[
			{"id":"sr-1","isFinal":false,"similarityReportStatusEnum":"","uploadDate":"2026-08-20T10:00:00Z",
			 "resource":{"id":"res-1","name":"essay.pdf"}}
		]}}`,
	})

	var submitted map[string]any
	gw.mux.HandleFunc("POST /api/v1/orchestrate/resource/assignment_resource/sub-1/submit", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bio-101-slug", r.Header.Get("current-class-slug-id"))
		assert.Equal(t, "cc-1", r.Header.Get("current-course-class-id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
		w.Write([]byte(`{"status":"Submitted"}`))
	})

	submitter := NewSubmitter(gw.client(t))
	status, err := submitter.Submit(t.Context(), testClass, "assess-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", status.SubmissionID)

	assert.Equal(t, "cc-1", submitted["classId"])
	assert.Equal(t, "Biology 101", submitted["className"])
	assert.Equal(t, "assess-1", submitted["assessmentId"])
	assert.Equal(t, "Week 3 Essay", submitted["assessmentTitle"])
	assert.Equal(t, true, submitted["requiresLopeswrite"])
	require.Len(t, submitted["resourceInfo"], 1)
	info := submitted["resourceInfo"].([]any)[0].(map[string]any)
	assert.Equal(t, "sr-1", info["assignmentSubmissionResourceId"])
	assert.Equal(t, "res-1", info["resourceId"])
	assert.Equal(t, "essay.pdf", info["fileName"])
	assert.Equal(t, "NOT_SUBMITTED", info["similarityReportStatus"])
}

func TestSubmitter_SubmitRequiresUploadedFiles(t *testing.T) {
	gw := newFakeGateway(t, map[string]string{
		"CourseClassAssessment": `{"assessment":{"id":"assess-1","title":"Week 3 Essay"}}`,
		"AssignmentSubmission":  `{"assignmentSubmission":{"id":"sub-1","status":"IN_PROGRESS","resources":[]}}`,
	})

	submitter := NewSubmitter(gw.client(t))
	_, err := submitter.Submit(t.Context(), testClass, "assess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no uploaded files")
}

func TestMessageTeacher_FormContract(t *testing.T) {
	gw := newFakeGateway(t, nil)
	var form map[string][]string
	gw.mux.HandleFunc("POST "+forumPostSendPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bio-101-slug", r.Header.Get("current-class-slug-id"))
		assert.Equal(t, "cc-1", r.Header.Get("current-course-class-id"))
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(`{"status":"sent"}`))
	})

	client := gw.client(t)
	require.NoError(t, client.MessageTeacher(t.Context(), testClass, "f-1", "See you Monday", false))
	assert.Equal(t, "<p>See you Monday</p>", form["content"][0])
	assert.Equal(t, "f-1", form["forumId"][0])
	assert.Equal(t, "false", form["isDraft"][0])
	assert.Equal(t, "true", form["extractLink"][0])

	require.NoError(t, client.MessageTeacher(t.Context(), testClass, "f-1", "<p>already html</p>", true))
	assert.Equal(t, "<p>already html</p>", form["content"][0])
	assert.Equal(t, "true", form["isDraft"][0])
}
