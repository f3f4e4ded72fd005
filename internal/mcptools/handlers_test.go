package mcptools

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halomcp/internal/auth"
	"halomcp/internal/classcache"
	"halomcp/internal/halo"
)

type apiStub struct {
	classes       []halo.ClassSummary
	listErr       error
	listCalls     int
	gradesSlug    string
	detailsSlug   string
	messageClass  halo.ClassContext
	messageForum  string
	messageBody   string
	messageDraft  bool
	notifiedClass string
}

func (a *apiStub) ListClasses(ctx context.Context) ([]halo.ClassSummary, error) {
	a.listCalls++
	return a.classes, a.listErr
}

func (a *apiStub) ClassDetails(ctx context.Context, slugID string, includeClassmates bool) (*halo.ClassDetail, error) {
	a.detailsSlug = slugID
	return &halo.ClassDetail{ClassSummary: halo.ClassSummary{SlugID: slugID}}, nil
}

func (a *apiStub) Grades(ctx context.Context, slugID, courseClassUserID string) (*halo.GradeReport, error) {
	a.gradesSlug = slugID
	return &halo.GradeReport{FinalGrade: "A"}, nil
}

func (a *apiStub) Discussions(ctx context.Context, courseClassID string) ([]halo.ForumSummary, error) {
	return []halo.ForumSummary{{ForumID: "f-1"}}, nil
}

func (a *apiStub) ForumPosts(ctx context.Context, forumID string) ([]halo.Post, error) {
	return []halo.Post{{ID: "p-1"}}, nil
}

func (a *apiStub) Announcements(ctx context.Context, courseClassID string) ([]halo.Announcement, error) {
	return []halo.Announcement{{Title: "Welcome"}}, nil
}

func (a *apiStub) Inbox(ctx context.Context) ([]halo.InboxThread, error) {
	return []halo.InboxThread{{ForumID: "f-9"}}, nil
}

func (a *apiStub) InboxPosts(ctx context.Context, forumID string) ([]halo.Post, error) {
	return []halo.Post{{ID: "m-1"}}, nil
}

func (a *apiStub) MessageTeacher(ctx context.Context, class halo.ClassContext, forumID, content string, isDraft bool) error {
	a.messageClass, a.messageForum, a.messageBody, a.messageDraft = class, forumID, content, isDraft
	return nil
}

func (a *apiStub) Notifications(ctx context.Context, classID string) (*halo.Notifications, error) {
	a.notifiedClass = classID
	return &halo.Notifications{InboxTotal: 2}, nil
}

func (a *apiStub) User(ctx context.Context, userID string) (*halo.UserProfile, error) {
	return &halo.UserProfile{ID: userID, Name: "Ada Lovelace"}, nil
}

func (a *apiStub) CheckCredentials(ctx context.Context) (*halo.CredentialReport, error) {
	return &halo.CredentialReport{OK: true}, nil
}

type uploaderStub struct {
	uploadedClass halo.ClassContext
	uploadedName  string
	uploadedData  []byte
	submitted     string
}

func (u *uploaderStub) UploadFile(ctx context.Context, class halo.ClassContext, assessmentID, fileName string, data []byte) (string, error) {
	u.uploadedClass = class
	u.uploadedName = fileName
	u.uploadedData = data
	return "res-1", nil
}

func (u *uploaderStub) Status(ctx context.Context, class halo.ClassContext, assessmentID string) (*halo.SubmissionStatus, error) {
	return &halo.SubmissionStatus{SubmissionID: "sub-1", Status: "IN_PROGRESS"}, nil
}

func (u *uploaderStub) Submit(ctx context.Context, class halo.ClassContext, assessmentID string) (*halo.SubmissionStatus, error) {
	u.submitted = assessmentID
	return &halo.SubmissionStatus{SubmissionID: "sub-1", Status: "SUBMITTED"}, nil
}

type sessionStub struct {
	calls int
	err   error
}

func (s *sessionStub) Establish(ctx context.Context, creds auth.CredentialSet) (auth.SessionHandle, error) {
	s.calls++
	if s.err != nil {
		return auth.SessionHandle{}, s.err
	}
	return auth.SessionHandle{Cookies: map[string]string{"session": "c"}}, nil
}

type refresherStub struct {
	calls int
	err   error
}

func (r *refresherStub) Refresh(ctx context.Context) (auth.CredentialSet, error) {
	r.calls++
	return auth.CredentialSet{AccessToken: "fresh"}, r.err
}

type storeStub struct {
	reloads int
	err     error
}

func (s *storeStub) Current() auth.CredentialSet { return auth.CredentialSet{AccessToken: "t"} }

func (s *storeStub) Reload() (auth.CredentialSet, error) {
	s.reloads++
	return auth.CredentialSet{AccessToken: "t"}, s.err
}

func (s *storeStub) Path() string { return "/tmp/credentials.json" }

type fixture struct {
	server    *Server
	api       *apiStub
	uploader  *uploaderStub
	refresher *refresherStub
	sessions  *sessionStub
	store     *storeStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cache, err := classcache.New(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	f := &fixture{
		api: &apiStub{classes: []halo.ClassSummary{
			{ID: "cc-1", SlugID: "bio-101-abc", Name: "Biology 101", ClassCode: "BIO-101"},
		}},
		uploader:  &uploaderStub{},
		refresher: &refresherStub{},
		sessions:  &sessionStub{},
		store:     &storeStub{},
	}
	f.server = New(Deps{
		API:       f.api,
		Uploader:  f.uploader,
		Store:     f.store,
		Refresher: f.refresher,
		Sessions:  f.sessions,
		Cache:     cache,
		Logger:    logger,
	})
	return f
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestListClasses_PopulatesCache(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleListClasses(t.Context(), callRequest("list_classes", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Biology 101")

	entry, err := f.server.deps.Cache.Resolve(t.Context(), "Biology 101")
	require.NoError(t, err)
	assert.Equal(t, "bio-101-abc", entry.SlugID)
}

func TestGrades_ResolvesClassByName(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleGrades(t.Context(), callRequest("grades", map[string]any{"class": "biology 101"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "bio-101-abc", f.api.gradesSlug)
	assert.Equal(t, 1, f.api.listCalls, "cache miss triggers one roster fetch")

	// Second call hits the populated cache.
	_, err = f.server.handleGrades(t.Context(), callRequest("grades", map[string]any{"class": "BIO-101"}))
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.listCalls)
}

func TestGrades_UnknownClass(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleGrades(t.Context(), callRequest("grades", map[string]any{"class": "knitting"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not found")
}

func TestGrades_MissingArgument(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleGrades(t.Context(), callRequest("grades", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestClassDetails_PassesClassmatesFlag(t *testing.T) {
	f := newFixture(t)

	_, err := f.server.handleClassDetails(t.Context(), callRequest("class_details", map[string]any{
		"class":              "Biology 101",
		"include_classmates": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "bio-101-abc", f.api.detailsSlug)
}

func TestMessageTeacher(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleMessageTeacher(t.Context(), callRequest("message_teacher", map[string]any{
		"class":    "Biology 101",
		"forum_id": "f-9",
		"content":  "When are office hours?",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "cc-1", f.api.messageClass.ID)
	assert.Equal(t, "bio-101-abc", f.api.messageClass.SlugID)
	assert.Equal(t, "f-9", f.api.messageForum)
	assert.Equal(t, "When are office hours?", f.api.messageBody)
	assert.False(t, f.api.messageDraft)
}

func TestMessageTeacher_RequiresClass(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleMessageTeacher(t.Context(), callRequest("message_teacher", map[string]any{
		"forum_id": "f-9",
		"content":  "hi",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNotifications_RequiresClass(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleNotifications(t.Context(), callRequest("notifications", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = f.server.handleNotifications(t.Context(), callRequest("notifications", map[string]any{
		"class": "BIO-101",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "cc-1", f.api.notifiedClass)
}

func TestUploadAssignmentFile_ReadsLocalFile(t *testing.T) {
	f := newFixture(t)

	path := filepath.Join(t.TempDir(), "essay.txt")
	require.NoError(t, os.WriteFile(path, []byte("my essay"), 0o644))

	res, err := f.server.handleUploadAssignmentFile(t.Context(), callRequest("upload_assignment_file", map[string]any{
		"class":         "Biology 101",
		"assessment_id": "assess-1",
		"file_path":     path,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "cc-1", f.uploader.uploadedClass.ID)
	assert.Equal(t, "essay.txt", f.uploader.uploadedName)
	assert.Equal(t, "my essay", string(f.uploader.uploadedData))
	assert.Contains(t, resultText(t, res), "res-1")
}

func TestUploadAssignmentFile_MissingFile(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleUploadAssignmentFile(t.Context(), callRequest("upload_assignment_file", map[string]any{
		"class":         "Biology 101",
		"assessment_id": "assess-1",
		"file_path":     "/does/not/exist.pdf",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSubmitAssignment(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleSubmitAssignment(t.Context(), callRequest("submit_assignment", map[string]any{
		"class":         "Biology 101",
		"assessment_id": "assess-1",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "assess-1", f.uploader.submitted)
	assert.Contains(t, resultText(t, res), "SUBMITTED")
}

func TestSetupSession(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleSetupSession(t.Context(), callRequest("setup_session", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, 1, f.sessions.calls)
	assert.Contains(t, resultText(t, res), f.store.Path())
}

func TestSetupSession_FailureCarriesRemediation(t *testing.T) {
	f := newFixture(t)
	f.sessions.err = &auth.Error{
		Op:          "establish",
		Remediation: "copy fresh tokens from your browser",
		Err:         auth.ErrSessionCreationFailed,
	}

	res, err := f.server.handleSetupSession(t.Context(), callRequest("setup_session", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "copy fresh tokens from your browser")
}

func TestRefreshCredentials_RemediationOnNoSession(t *testing.T) {
	f := newFixture(t)
	f.refresher.err = &auth.Error{
		Op:          "refresh",
		Remediation: "Call the 'setup_session' tool to create a long-lived session",
		Err:         auth.ErrNoSession,
	}

	res, err := f.server.handleRefreshCredentials(t.Context(), callRequest("refresh_credentials", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "setup_session")
}

func TestReloadCredentials(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleReloadCredentials(t.Context(), callRequest("reload_credentials", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, 1, f.store.reloads)
	assert.Contains(t, resultText(t, res), f.store.Path())
}

func TestCheckCredentials(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleCheckCredentials(t.Context(), callRequest("check_credentials", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"ok": true`)
}
