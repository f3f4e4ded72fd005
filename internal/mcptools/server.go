// Package mcptools exposes the Halo client as MCP tools over stdio or
// streamable HTTP, for use by AI assistants.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"halomcp/internal/auth"
	"halomcp/internal/classcache"
	"halomcp/internal/halo"
)

const (
	serverName    = "halomcp"
	serverVersion = "0.1.0"

	shutdownTimeout = 5 * time.Second
)

// PortalAPI is the slice of the halo client the tool handlers use.
type PortalAPI interface {
	ListClasses(ctx context.Context) ([]halo.ClassSummary, error)
	ClassDetails(ctx context.Context, slugID string, includeClassmates bool) (*halo.ClassDetail, error)
	Grades(ctx context.Context, slugID, courseClassUserID string) (*halo.GradeReport, error)
	Discussions(ctx context.Context, courseClassID string) ([]halo.ForumSummary, error)
	ForumPosts(ctx context.Context, forumID string) ([]halo.Post, error)
	Announcements(ctx context.Context, courseClassID string) ([]halo.Announcement, error)
	Inbox(ctx context.Context) ([]halo.InboxThread, error)
	InboxPosts(ctx context.Context, forumID string) ([]halo.Post, error)
	MessageTeacher(ctx context.Context, class halo.ClassContext, forumID, content string, isDraft bool) error
	Notifications(ctx context.Context, classID string) (*halo.Notifications, error)
	User(ctx context.Context, userID string) (*halo.UserProfile, error)
	CheckCredentials(ctx context.Context) (*halo.CredentialReport, error)
}

// Uploader is the slice of the submission flow the tool handlers use.
type Uploader interface {
	UploadFile(ctx context.Context, class halo.ClassContext, assessmentID, fileName string, data []byte) (string, error)
	Status(ctx context.Context, class halo.ClassContext, assessmentID string) (*halo.SubmissionStatus, error)
	Submit(ctx context.Context, class halo.ClassContext, assessmentID string) (*halo.SubmissionStatus, error)
}

// Refresher triggers a coordinated credential renewal.
type Refresher interface {
	Refresh(ctx context.Context) (auth.CredentialSet, error)
}

// SessionBuilder establishes the long-lived renewal session from the stored
// tokens. The auth.Registry is the real implementation.
type SessionBuilder interface {
	Establish(ctx context.Context, creds auth.CredentialSet) (auth.SessionHandle, error)
}

// CredentialStore is the slice of the auth store the tool handlers use.
type CredentialStore interface {
	Current() auth.CredentialSet
	Reload() (auth.CredentialSet, error)
	Path() string
}

// Deps carries everything the tool handlers need.
type Deps struct {
	API       PortalAPI
	Uploader  Uploader
	Store     CredentialStore
	Refresher Refresher
	Sessions  SessionBuilder
	Cache     *classcache.Cache
	Logger    *slog.Logger
}

// Server registers the Halo tools on an MCP server and runs the chosen
// transport.
type Server struct {
	deps Deps
	mcp  *server.MCPServer

	httpServer *server.StreamableHTTPServer
}

// New creates the MCP server and registers all tools.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{deps: deps, mcp: mcpServer}
	s.registerTools()

	return s
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.deps.Logger.Info("starting MCP server", "transport", "stdio")

	return server.ServeStdio(s.mcp)
}

// ServeHTTP runs the server with the streamable HTTP transport on addr until
// the context is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	s.deps.Logger.Info("starting MCP server", "transport", "http", "addr", addr)

	s.httpServer = server.NewStreamableHTTPServer(s.mcp)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcp http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.deps.Logger.Warn("mcp http server shutdown", "error", err)
		}
		return nil
	}
}

// registerTools declares every tool with its input schema and handler.
func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_classes",
		mcp.WithDescription("List the classes the student is enrolled in"),
	), s.handleListClasses)

	s.mcp.AddTool(mcp.NewTool("class_details",
		mcp.WithDescription("Get the syllabus view of one class: units, assessments, due dates, instructors"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
		mcp.WithBoolean("include_classmates",
			mcp.Description("Include the class roster (default: false)"),
		),
	), s.handleClassDetails)

	s.mcp.AddTool(mcp.NewTool("grades",
		mcp.WithDescription("Get the student's grade report for one class"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
	), s.handleGrades)

	s.mcp.AddTool(mcp.NewTool("discussions",
		mcp.WithDescription("List the discussion forums of one class"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
	), s.handleDiscussions)

	s.mcp.AddTool(mcp.NewTool("forum_posts",
		mcp.WithDescription("Read the posts of one discussion forum, including replies"),
		mcp.WithString("forum_id",
			mcp.Required(),
			mcp.Description("Forum id from the discussions tool"),
		),
	), s.handleForumPosts)

	s.mcp.AddTool(mcp.NewTool("announcements",
		mcp.WithDescription("Read the announcements of one class"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
	), s.handleAnnouncements)

	s.mcp.AddTool(mcp.NewTool("inbox",
		mcp.WithDescription("List the student's message threads across all classes"),
	), s.handleInbox)

	s.mcp.AddTool(mcp.NewTool("inbox_posts",
		mcp.WithDescription("Read the messages of one inbox thread"),
		mcp.WithString("forum_id",
			mcp.Required(),
			mcp.Description("Thread forum id from the inbox tool"),
		),
	), s.handleInboxPosts)

	s.mcp.AddTool(mcp.NewTool("message_teacher",
		mcp.WithDescription("Send a message into an inbox thread; plain text is wrapped in HTML automatically"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
		mcp.WithString("forum_id",
			mcp.Required(),
			mcp.Description("Thread forum id from the inbox tool"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Message body (plain text)"),
		),
		mcp.WithBoolean("is_draft",
			mcp.Description("Save as a draft instead of sending (default: false)"),
		),
	), s.handleMessageTeacher)

	s.mcp.AddTool(mcp.NewTool("notifications",
		mcp.WithDescription("Get unread announcement, discussion, and inbox counts for one class"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
	), s.handleNotifications)

	s.mcp.AddTool(mcp.NewTool("user_profile",
		mcp.WithDescription("Get a user's profile by id"),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User id, e.g. from a forum post author"),
		),
	), s.handleUserProfile)

	s.mcp.AddTool(mcp.NewTool("assignment_status",
		mcp.WithDescription("Show the draft submission for an assignment: uploaded files and due date"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
		mcp.WithString("assessment_id",
			mcp.Required(),
			mcp.Description("Assessment id from the class_details tool"),
		),
	), s.handleAssignmentStatus)

	s.mcp.AddTool(mcp.NewTool("upload_assignment_file",
		mcp.WithDescription("Upload a local file and attach it to an assignment's draft submission"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
		mcp.WithString("assessment_id",
			mcp.Required(),
			mcp.Description("Assessment id from the class_details tool"),
		),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path of the file to upload"),
		),
	), s.handleUploadAssignmentFile)

	s.mcp.AddTool(mcp.NewTool("submit_assignment",
		mcp.WithDescription("Finalize an assignment submission from its uploaded files; this is irreversible"),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Class name, class code, or slug id"),
		),
		mcp.WithString("assessment_id",
			mcp.Required(),
			mcp.Description("Assessment id from the class_details tool"),
		),
	), s.handleSubmitAssignment)

	s.mcp.AddTool(mcp.NewTool("setup_session",
		mcp.WithDescription("Create the long-lived renewal session from the stored tokens; "+
			"while it lasts, expired tokens refresh automatically"),
	), s.handleSetupSession)

	s.mcp.AddTool(mcp.NewTool("check_credentials",
		mcp.WithDescription("Probe the gateway and report whether the stored credentials work"),
	), s.handleCheckCredentials)

	s.mcp.AddTool(mcp.NewTool("refresh_credentials",
		mcp.WithDescription("Force a credential renewal through the stored browser session"),
	), s.handleRefreshCredentials)

	s.mcp.AddTool(mcp.NewTool("reload_credentials",
		mcp.WithDescription("Re-read the credential file after it was updated externally"),
	), s.handleReloadCredentials)
}
