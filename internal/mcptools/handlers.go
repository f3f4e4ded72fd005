package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"halomcp/internal/auth"
	"halomcp/internal/classcache"
	"halomcp/internal/halo"
)

// maxUploadSize caps how much of a local file a tool call will read.
const maxUploadSize = 100 << 20 // 100 MiB, the portal's own upload limit

// jsonResult marshals v as indented JSON for the assistant to read.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}

	return mcp.NewToolResultText(string(data))
}

// errorResult renders an operation failure, appending remediation guidance
// for credential errors so the assistant can tell the user what to do.
func (s *Server) errorResult(op string, err error) *mcp.CallToolResult {
	s.deps.Logger.Warn("tool call failed", "tool", op, "error", err)

	msg := fmt.Sprintf("%s failed: %v", op, err)
	if remedy := auth.RemediationFor(err); remedy != "" {
		msg += "\n\n" + remedy
	}

	return mcp.NewToolResultError(msg)
}

// resolveClass maps a user-supplied class reference to a cache entry. On a
// miss the roster is refetched once before giving up, so a freshly added
// class resolves without a manual cache refresh.
func (s *Server) resolveClass(ctx context.Context, ref string) (*classcache.Entry, error) {
	entry, err := s.deps.Cache.Resolve(ctx, ref)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, classcache.ErrNotFound) {
		return nil, err
	}

	if err := s.refreshRoster(ctx); err != nil {
		return nil, err
	}

	return s.deps.Cache.Resolve(ctx, ref)
}

// requireClass reads the mandatory class argument and resolves it to the
// context orchestration calls need. A non-nil result is the error to return.
func (s *Server) requireClass(ctx context.Context, request mcp.CallToolRequest, op string) (halo.ClassContext, *mcp.CallToolResult) {
	ref, err := request.RequireString("class")
	if err != nil {
		return halo.ClassContext{}, mcp.NewToolResultError(err.Error())
	}

	entry, err := s.resolveClass(ctx, ref)
	if err != nil {
		return halo.ClassContext{}, s.errorResult(op, err)
	}

	return halo.ClassContext{ID: entry.ID, SlugID: entry.SlugID, Name: entry.Name}, nil
}

// refreshRoster refetches the class list and repopulates the cache.
func (s *Server) refreshRoster(ctx context.Context) error {
	classes, err := s.deps.API.ListClasses(ctx)
	if err != nil {
		return err
	}

	return s.refreshRosterFrom(ctx, classes)
}

// refreshRosterFrom repopulates the cache from an already fetched roster.
func (s *Server) refreshRosterFrom(ctx context.Context, classes []halo.ClassSummary) error {
	entries := make([]classcache.Entry, 0, len(classes))
	for _, c := range classes {
		entries = append(entries, classcache.Entry{
			ID:         c.ID,
			SlugID:     c.SlugID,
			Name:       c.Name,
			ClassCode:  c.ClassCode,
			CourseCode: c.CourseCode,
			Stage:      c.Stage,
		})
	}

	return s.deps.Cache.Populate(ctx, entries)
}

func (s *Server) handleListClasses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	classes, err := s.deps.API.ListClasses(ctx)
	if err != nil {
		return s.errorResult("list_classes", err), nil
	}

	// Keep the resolver warm as a side effect.
	if err := s.refreshRosterFrom(ctx, classes); err != nil {
		s.deps.Logger.Warn("class cache refresh failed", "error", err)
	}

	return jsonResult(classes), nil
}

func (s *Server) handleClassDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.resolveClass(ctx, ref)
	if err != nil {
		return s.errorResult("class_details", err), nil
	}

	detail, err := s.deps.API.ClassDetails(ctx, entry.SlugID, request.GetBool("include_classmates", false))
	if err != nil {
		return s.errorResult("class_details", err), nil
	}

	return jsonResult(detail), nil
}

func (s *Server) handleGrades(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.resolveClass(ctx, ref)
	if err != nil {
		return s.errorResult("grades", err), nil
	}

	report, err := s.deps.API.Grades(ctx, entry.SlugID, "")
	if err != nil {
		return s.errorResult("grades", err), nil
	}

	return jsonResult(report), nil
}

func (s *Server) handleDiscussions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.resolveClass(ctx, ref)
	if err != nil {
		return s.errorResult("discussions", err), nil
	}

	forums, err := s.deps.API.Discussions(ctx, entry.ID)
	if err != nil {
		return s.errorResult("discussions", err), nil
	}

	return jsonResult(forums), nil
}

func (s *Server) handleForumPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	forumID, err := request.RequireString("forum_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	posts, err := s.deps.API.ForumPosts(ctx, forumID)
	if err != nil {
		return s.errorResult("forum_posts", err), nil
	}

	return jsonResult(posts), nil
}

func (s *Server) handleAnnouncements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.resolveClass(ctx, ref)
	if err != nil {
		return s.errorResult("announcements", err), nil
	}

	announcements, err := s.deps.API.Announcements(ctx, entry.ID)
	if err != nil {
		return s.errorResult("announcements", err), nil
	}

	return jsonResult(announcements), nil
}

func (s *Server) handleInbox(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threads, err := s.deps.API.Inbox(ctx)
	if err != nil {
		return s.errorResult("inbox", err), nil
	}

	return jsonResult(threads), nil
}

func (s *Server) handleInboxPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	forumID, err := request.RequireString("forum_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	posts, err := s.deps.API.InboxPosts(ctx, forumID)
	if err != nil {
		return s.errorResult("inbox_posts", err), nil
	}

	return jsonResult(posts), nil
}

func (s *Server) handleMessageTeacher(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, result := s.requireClass(ctx, request, "message_teacher")
	if result != nil {
		return result, nil
	}

	forumID, err := request.RequireString("forum_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	isDraft := request.GetBool("is_draft", false)
	if err := s.deps.API.MessageTeacher(ctx, class, forumID, content, isDraft); err != nil {
		return s.errorResult("message_teacher", err), nil
	}

	if isDraft {
		return mcp.NewToolResultText("draft saved"), nil
	}
	return mcp.NewToolResultText("message sent"), nil
}

func (s *Server) handleNotifications(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, result := s.requireClass(ctx, request, "notifications")
	if result != nil {
		return result, nil
	}

	counts, err := s.deps.API.Notifications(ctx, class.ID)
	if err != nil {
		return s.errorResult("notifications", err), nil
	}

	return jsonResult(counts), nil
}

func (s *Server) handleUserProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	profile, err := s.deps.API.User(ctx, userID)
	if err != nil {
		return s.errorResult("user_profile", err), nil
	}

	return jsonResult(profile), nil
}

func (s *Server) handleAssignmentStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, result := s.requireClass(ctx, request, "assignment_status")
	if result != nil {
		return result, nil
	}

	assessmentID, err := request.RequireString("assessment_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status, err := s.deps.Uploader.Status(ctx, class, assessmentID)
	if err != nil {
		return s.errorResult("assignment_status", err), nil
	}

	return jsonResult(status), nil
}

func (s *Server) handleUploadAssignmentFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, result := s.requireClass(ctx, request, "upload_assignment_file")
	if result != nil {
		return result, nil
	}

	assessmentID, err := request.RequireString("assessment_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return s.errorResult("upload_assignment_file", err), nil
	}
	if info.Size() > maxUploadSize {
		return mcp.NewToolResultError(fmt.Sprintf("%s is %d bytes, over the %d byte upload limit", filePath, info.Size(), maxUploadSize)), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return s.errorResult("upload_assignment_file", err), nil
	}

	resourceID, err := s.deps.Uploader.UploadFile(ctx, class, assessmentID, filepath.Base(filePath), data)
	if err != nil {
		return s.errorResult("upload_assignment_file", err), nil
	}

	return jsonResult(map[string]string{
		"resourceId": resourceID,
		"fileName":   filepath.Base(filePath),
	}), nil
}

func (s *Server) handleSubmitAssignment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, result := s.requireClass(ctx, request, "submit_assignment")
	if result != nil {
		return result, nil
	}

	assessmentID, err := request.RequireString("assessment_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status, err := s.deps.Uploader.Submit(ctx, class, assessmentID)
	if err != nil {
		return s.errorResult("submit_assignment", err), nil
	}

	return jsonResult(status), nil
}

func (s *Server) handleSetupSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	handle, err := s.deps.Sessions.Establish(ctx, s.deps.Store.Current())
	if err != nil {
		return s.errorResult("setup_session", err), nil
	}

	msg := "renewal session established and persisted to " + s.deps.Store.Path()
	if !handle.ExpiresAt.IsZero() {
		msg += "; expires " + handle.ExpiresAt.UTC().Format(time.RFC3339)
	}

	return mcp.NewToolResultText(msg), nil
}

func (s *Server) handleCheckCredentials(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.deps.API.CheckCredentials(ctx)
	if err != nil {
		return s.errorResult("check_credentials", err), nil
	}

	return jsonResult(report), nil
}

func (s *Server) handleRefreshCredentials(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.deps.Refresher.Refresh(ctx); err != nil {
		return s.errorResult("refresh_credentials", err), nil
	}

	return mcp.NewToolResultText("credentials renewed and persisted to " + s.deps.Store.Path()), nil
}

func (s *Server) handleReloadCredentials(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.deps.Store.Reload(); err != nil {
		return s.errorResult("reload_credentials", err), nil
	}

	return mcp.NewToolResultText("credentials reloaded from " + s.deps.Store.Path()), nil
}
