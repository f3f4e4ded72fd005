package halo

import "time"

// Raw decode targets for gateway responses. Only fields the cleaners read are
// declared; the rest of each payload is dropped at decode time.

type rawUser struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	PreferredFirstName string `json:"preferredFirstName"`
	SourceID           string `json:"sourceId"`
	UserStatus         string `json:"userStatus"`
}

type rawEnrollment struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId"`
	RoleName     string  `json:"roleName"`
	BaseRoleName string  `json:"baseRoleName"`
	Status       string  `json:"status"`
	User         rawUser `json:"user"`
}

type rawUnit struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Sequence    int             `json:"sequence"`
	Current     bool            `json:"current"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Points      float64         `json:"points"`
	Assessments []rawAssessment `json:"assessments"`
}

type rawAssessment struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Sequence    int     `json:"sequence"`
	StartDate   string  `json:"startDate"`
	DueDate     string  `json:"dueDate"`
	Points      float64 `json:"points"`
	Type        string  `json:"type"`
}

type rawCourseClass struct {
	ID          string          `json:"id"`
	ClassCode   string          `json:"classCode"`
	SlugID      string          `json:"slugId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CourseCode  string          `json:"courseCode"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Stage       string          `json:"stage"`
	Modality    string          `json:"modality"`
	Credits     float64         `json:"credits"`
	Units       []rawUnit       `json:"units"`
	Instructors []rawEnrollment `json:"instructors"`
	Students    []rawEnrollment `json:"students"`
}

type rawGrade struct {
	ID                   string        `json:"id"`
	Status               string        `json:"status"`
	FinalPoints          float64       `json:"finalPoints"`
	DueDate              string        `json:"dueDate"`
	Assessment           rawAssessment `json:"assessment"`
	AssignmentSubmission *struct {
		SubmissionDate string `json:"submissionDate"`
	} `json:"assignmentSubmission"`
	FinalComment *struct {
		Comment string `json:"comment"`
	} `json:"finalComment"`
}

type rawGradeOverview struct {
	FinalGrade *struct {
		FinalPoints float64 `json:"finalPoints"`
		GradeValue  string  `json:"gradeValue"`
		MaxPoints   float64 `json:"maxPoints"`
		IsPublished bool    `json:"isPublished"`
	} `json:"finalGrade"`
	Grades []rawGrade `json:"grades"`
}

type rawForum struct {
	ForumID     string  `json:"forumId"`
	ForumType   string  `json:"forumType"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	StartDate   string  `json:"startDate"`
	DueDate     string  `json:"dueDate"`
	TotalPosts  float64 `json:"totalPosts"`
	Active      bool    `json:"active"`
}

type rawPost struct {
	ID           string `json:"id"`
	ForumID      string `json:"forumId"`
	ParentPostID string `json:"parentPostId"`
	Content      string `json:"content"`
	PublishDate  string `json:"publishDate"`
	PostStatus   string `json:"postStatus"`
	CreatedBy    *struct {
		BaseRoleName string  `json:"baseRoleName"`
		User         rawUser `json:"user"`
	} `json:"createdBy"`
	Replies []rawPost `json:"replies"`
}

type rawAnnouncementForum struct {
	ForumID string    `json:"forumId"`
	Title   string    `json:"title"`
	Posts   []rawPost `json:"posts"`
}

type rawInboxForum struct {
	ForumID       string `json:"forumId"`
	CourseClassID string `json:"courseClassId"`
	LastPost      *struct {
		IsReplied bool     `json:"isReplied"`
		Recipient *rawUser `json:"recipient"`
		Post      *rawPost `json:"post"`
	} `json:"lastPost"`
}

type rawNotificationClass struct {
	ClassID string  `json:"classId"`
	Count   float64 `json:"count"`
}

type rawNotificationBucket struct {
	Classes []rawNotificationClass `json:"classes"`
	Count   float64                `json:"count"`
}

// Cleaned output types returned by the operation wrappers.

type ClassSummary struct {
	ID          string   `json:"id"`
	SlugID      string   `json:"slugId"`
	Name        string   `json:"name"`
	ClassCode   string   `json:"classCode"`
	CourseCode  string   `json:"courseCode"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Stage       string   `json:"stage"`
	Modality    string   `json:"modality"`
	Instructors []string `json:"instructors"`
}

type Assessment struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Type     string  `json:"type"`
	DueDate  string  `json:"dueDate"`
	Points   float64 `json:"points"`
	Sequence int     `json:"sequence"`
}

type Unit struct {
	Title       string       `json:"title"`
	Sequence    int          `json:"sequence"`
	Current     bool         `json:"current"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	Assessments []Assessment `json:"assessments"`
}

type ClassDetail struct {
	ClassSummary
	Description string   `json:"description"`
	Credits     float64  `json:"credits"`
	Units       []Unit   `json:"units"`
	Classmates  []string `json:"classmates,omitempty"`
}

type GradeItem struct {
	Assessment     string  `json:"assessment"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	Points         float64 `json:"points"`
	MaxPoints      float64 `json:"maxPoints"`
	DueDate        string  `json:"dueDate"`
	SubmissionDate string  `json:"submissionDate,omitempty"`
	Comment        string  `json:"comment,omitempty"`
}

type GradeReport struct {
	FinalGrade  string      `json:"finalGrade,omitempty"`
	FinalPoints float64     `json:"finalPoints"`
	MaxPoints   float64     `json:"maxPoints"`
	IsPublished bool        `json:"isPublished"`
	Items       []GradeItem `json:"items"`
}

type ForumSummary struct {
	ForumID     string `json:"forumId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate"`
	DueDate     string `json:"dueDate"`
	TotalPosts  int    `json:"totalPosts"`
}

type Post struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Role        string `json:"role,omitempty"`
	Content     string `json:"content"`
	PublishDate string `json:"publishDate"`
	Replies     []Post `json:"replies,omitempty"`
}

type Announcement struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Content     string `json:"content"`
	PublishDate string `json:"publishDate"`
}

type InboxThread struct {
	ForumID     string `json:"forumId"`
	ClassID     string `json:"classId"`
	With        string `json:"with,omitempty"`
	LastMessage string `json:"lastMessage,omitempty"`
	LastDate    string `json:"lastDate,omitempty"`
	Unanswered  bool   `json:"unanswered"`
}

type NotificationCount struct {
	ClassID string `json:"classId"`
	Count   int    `json:"count"`
}

type Notifications struct {
	Announcements []NotificationCount `json:"announcements,omitempty"`
	Discussions   []NotificationCount `json:"discussions,omitempty"`
	Inbox         []NotificationCount `json:"inbox,omitempty"`
	InboxTotal    int                 `json:"inboxTotal"`
}

type UserProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SourceID  string `json:"sourceId,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ClassContext carries the class identifiers orchestration writes need in
// their headers and bodies. Filled from the class cache by the caller.
type ClassContext struct {
	ID     string
	SlugID string
	Name   string
}

type SubmissionResource struct {
	SubmissionResourceID string `json:"submissionResourceId"`
	ResourceID           string `json:"resourceId"`
	Name                 string `json:"name"`
	IsFinal              bool   `json:"isFinal"`
	SimilarityStatus     string `json:"similarityStatus,omitempty"`
	UploadDate           string `json:"uploadDate,omitempty"`
}

type SubmissionStatus struct {
	SubmissionID   string               `json:"submissionId"`
	Status         string               `json:"status"`
	DueDate        string               `json:"dueDate"`
	SubmissionDate string               `json:"submissionDate,omitempty"`
	Resources      []SubmissionResource `json:"resources"`
}

// CredentialReport is the result of a connectivity probe.
type CredentialReport struct {
	OK        bool      `json:"ok"`
	CheckedAt time.Time `json:"checkedAt"`
	Detail    string    `json:"detail,omitempty"`
}
