package halo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	forumPostSendPath = "/api/v1/orchestrate/forum/post/send"

	classPageSize = 40
	postPageSize  = 50
)

// decode unmarshals one named field from a GraphQL data payload.
func decode(data json.RawMessage, field string, v any) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	raw, ok := envelope[field]
	if !ok || string(raw) == "null" {
		return fmt.Errorf("response missing %q", field)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", field, err)
	}
	return nil
}

// ListClasses returns the caller's enrolled classes.
func (c *Client) ListClasses(ctx context.Context) ([]ClassSummary, error) {
	req := NewRequest("getCourseClassesForUser").
		Query(QueryCourseClassesForUser).
		Variables(map[string]any{"pgNum": 1, "pgSize": classPageSize})
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var payload struct {
		CourseClasses []rawCourseClass `json:"courseClasses"`
	}
	if err := decode(data, "getCourseClassesForUser", &payload); err != nil {
		return nil, err
	}
	out := make([]ClassSummary, 0, len(payload.CourseClasses))
	for _, cc := range payload.CourseClasses {
		out = append(out, cleanClassSummary(cc))
	}
	return out, nil
}

// ClassDetails returns the full syllabus view of one class.
func (c *Client) ClassDetails(ctx context.Context, slugID string, includeClassmates bool) (*ClassDetail, error) {
	req := NewRequest("CurrentClass").
		Query(QueryCurrentClass).
		Variables(map[string]any{"slugId": slugID, "isStudent": true}).
		ClassSlug(slugID)
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var cc rawCourseClass
	if err := decode(data, "currentClass", &cc); err != nil {
		return nil, err
	}
	detail := cleanClassDetail(cc, includeClassmates)
	return &detail, nil
}

// Grades returns the caller's grade report for one class.
func (c *Client) Grades(ctx context.Context, slugID, courseClassUserID string) (*GradeReport, error) {
	vars := map[string]any{"courseClassSlugId": slugID}
	if courseClassUserID != "" {
		vars["courseClassUserIds"] = []string{courseClassUserID}
	}
	req := NewRequest("GradeOverview").
		Query(QueryGradeOverview).
		Variables(vars).
		ClassSlug(slugID)
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var overviews []rawGradeOverview
	if err := decode(data, "gradeOverview", &overviews); err != nil {
		return nil, err
	}
	if len(overviews) == 0 {
		return &GradeReport{}, nil
	}
	report := cleanGradeReport(overviews[0])
	return &report, nil
}

// Discussions lists the discussion forums of one class.
func (c *Client) Discussions(ctx context.Context, courseClassID string) ([]ForumSummary, error) {
	req := NewRequest("AllDQForCourseClass").
		Query(QueryAllDQForCourseClass).
		Variables(map[string]any{
			"courseClassId": courseClassID,
			"sortBy":        "startDate",
			"pgNum":         1,
			"pgSize":        postPageSize,
		}).
		CourseClass(courseClassID)
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var forums []rawForum
	if err := decode(data, "allDQForCourseClass", &forums); err != nil {
		return nil, err
	}
	out := make([]ForumSummary, 0, len(forums))
	for _, f := range forums {
		out = append(out, cleanForum(f))
	}
	return out, nil
}

// ForumPosts returns the post tree of one discussion forum.
func (c *Client) ForumPosts(ctx context.Context, forumID string) ([]Post, error) {
	req := NewRequest("getDiscussionForumPosts").
		Query(QueryDiscussionForumPosts).
		Variables(map[string]any{
			"forumId":    forumID,
			"depthStart": 0,
			"depthEnd":   2,
		})
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var posts []rawPost
	if err := decode(data, "Posts", &posts); err != nil {
		return nil, err
	}
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, cleanPost(p))
	}
	return out, nil
}

// Announcements returns class announcements, newest first as the gateway
// orders them.
func (c *Client) Announcements(ctx context.Context, courseClassID string) ([]Announcement, error) {
	req := NewRequest("GetAnnouncementsStudent").
		Query(QueryAnnouncementsStudent).
		Variables(map[string]any{"courseClassId": courseClassID}).
		CourseClass(courseClassID)
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var forums []rawAnnouncementForum
	if err := decode(data, "announcements", &forums); err != nil {
		return nil, err
	}
	return cleanAnnouncements(forums), nil
}

// Inbox returns the caller's message threads across all classes.
func (c *Client) Inbox(ctx context.Context) ([]InboxThread, error) {
	req := NewRequest("GetInboxLeftPanel").Query(QueryInboxLeftPanel)
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var panels []struct {
		CourseClassID   string          `json:"courseClassId"`
		UnansweredCount float64         `json:"unansweredCount"`
		Forums          []rawInboxForum `json:"forums"`
	}
	if err := decode(data, "getInboxLeftPanel", &panels); err != nil {
		return nil, err
	}
	var out []InboxThread
	for _, panel := range panels {
		for _, f := range panel.Forums {
			thread := InboxThread{
				ForumID: f.ForumID,
				ClassID: f.CourseClassID,
			}
			if thread.ClassID == "" {
				thread.ClassID = panel.CourseClassID
			}
			if lp := f.LastPost; lp != nil {
				thread.Unanswered = !lp.IsReplied
				if lp.Recipient != nil {
					thread.With = userName(*lp.Recipient)
				}
				if lp.Post != nil {
					thread.LastMessage = stripHTML(lp.Post.Content)
					thread.LastDate = dateShort(lp.Post.PublishDate)
				}
			}
			out = append(out, thread)
		}
	}
	return out, nil
}

// InboxPosts returns the messages of one inbox thread.
func (c *Client) InboxPosts(ctx context.Context, forumID string) ([]Post, error) {
	req := NewRequest("getPostsByInboxForumId").
		Query(QueryPostsByInboxForumID).
		Variables(map[string]any{
			"forumId": forumID,
			"pgNum":   1,
			"pgSize":  postPageSize,
		})
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var posts []rawPost
	if err := decode(data, "getPostsForInboxForum", &posts); err != nil {
		return nil, err
	}
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, cleanPost(p))
	}
	return out, nil
}

// MessageTeacher posts a message into an inbox thread. The orchestrate
// endpoint takes form fields, not GraphQL, and plain text must arrive
// wrapped in HTML.
func (c *Client) MessageTeacher(ctx context.Context, class ClassContext, forumID, content string, isDraft bool) error {
	body := content
	if !strings.HasPrefix(strings.TrimSpace(content), "<") {
		body = "<p>" + content + "</p>"
	}

	form := url.Values{}
	form.Set("content", body)
	form.Set("forumId", forumID)
	form.Set("isDraft", strconv.FormatBool(isDraft))
	form.Set("extractLink", "true")
	req := NewRequest("sendForumPost").
		ClassSlug(class.SlugID).
		CourseClass(class.ID).
		Form(form)
	_, err := c.PostForm(ctx, forumPostSendPath, req)
	return err
}

// Notifications fans out the forum and inbox notification queries and merges
// the counts.
func (c *Client) Notifications(ctx context.Context, classID string) (*Notifications, error) {
	var (
		forumBuckets struct {
			ForumTypes struct {
				Announcements rawNotificationBucket `json:"ANNOUNCEMENTS"`
				DQ            rawNotificationBucket `json:"DQ"`
			} `json:"forumTypes"`
		}
		inboxBuckets struct {
			ForumTypes struct {
				Inbox rawNotificationBucket `json:"INBOX"`
			} `json:"forumTypes"`
		}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		req := NewRequest("GetForumNotifications").
			Query(QueryForumNotifications).
			Variables(map[string]any{"classId": classID})
		data, err := c.Query(ctx, req)
		if err != nil {
			return err
		}
		return decode(data, "classes", &forumBuckets)
	})
	g.Go(func() error {
		req := NewRequest("GetInboxNotifications").
			Query(QueryInboxNotifications).
			Variables(map[string]any{"fetchCounts": true})
		data, err := c.Query(ctx, req)
		if err != nil {
			return err
		}
		return decode(data, "classes", &inboxBuckets)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Notifications{
		Announcements: cleanNotificationCounts(forumBuckets.ForumTypes.Announcements),
		Discussions:   cleanNotificationCounts(forumBuckets.ForumTypes.DQ),
		Inbox:         cleanNotificationCounts(inboxBuckets.ForumTypes.Inbox),
		InboxTotal:    int(inboxBuckets.ForumTypes.Inbox.Count),
	}, nil
}

// User returns one user's profile.
func (c *Client) User(ctx context.Context, userID string) (*UserProfile, error) {
	req := NewRequest("getUserById").
		Query(QueryUserByID).
		Variables(map[string]any{"userId": userID})
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var u rawUser
	if err := decode(data, "getUserById", &u); err != nil {
		return nil, err
	}
	return &UserProfile{
		ID:       u.ID,
		Name:     userName(u),
		SourceID: u.SourceID,
	}, nil
}

// CheckCredentials probes the gateway with the roster query and reports
// whether the current credentials work. Failures are reported, not returned:
// the probe exists to describe credential health, so only context
// cancellation escapes as an error.
func (c *Client) CheckCredentials(ctx context.Context) (*CredentialReport, error) {
	report := &CredentialReport{CheckedAt: time.Now()}
	classes, err := c.ListClasses(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report.Detail = err.Error()
		return report, nil
	}
	report.OK = true
	report.Detail = fmt.Sprintf("gateway reachable, %d enrolled classes visible", len(classes))
	return report, nil
}
