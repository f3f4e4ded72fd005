package halo

import (
	"regexp"
	"strings"
	"time"
)

var (
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	spacePattern  = regexp.MustCompile(`\s+`)
	entityReplace = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&rsquo;", "'",
		"&lsquo;", "'",
		"&rdquo;", `"`,
		"&ldquo;", `"`,
		"&mdash;", "-",
		"&ndash;", "-",
	)
)

// stripHTML reduces portal rich text to plain text. Block-level tags become
// newlines so paragraph breaks survive the strip.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	for _, tag := range []string{"</p>", "<br>", "<br/>", "<br />", "</div>", "</li>"} {
		s = strings.ReplaceAll(s, tag, tag+"\n")
	}
	s = tagPattern.ReplaceAllString(s, "")
	s = entityReplace.Replace(s)
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(spacePattern.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// userName prefers the preferred first name the way the portal renders it.
func userName(u rawUser) string {
	first := u.PreferredFirstName
	if first == "" {
		first = u.FirstName
	}
	name := strings.TrimSpace(first + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// dateShort renders gateway timestamps as a local date, passing through
// anything it cannot parse.
func dateShort(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func cleanClassSummary(c rawCourseClass) ClassSummary {
	instructors := make([]string, 0, len(c.Instructors))
	for _, in := range c.Instructors {
		if name := userName(in.User); name != "" {
			instructors = append(instructors, name)
		}
	}
	return ClassSummary{
		ID:          c.ID,
		SlugID:      c.SlugID,
		Name:        c.Name,
		ClassCode:   c.ClassCode,
		CourseCode:  c.CourseCode,
		StartDate:   dateShort(c.StartDate),
		EndDate:     dateShort(c.EndDate),
		Stage:       c.Stage,
		Modality:    c.Modality,
		Instructors: instructors,
	}
}

func cleanClassDetail(c rawCourseClass, includeClassmates bool) ClassDetail {
	detail := ClassDetail{
		ClassSummary: cleanClassSummary(c),
		Description:  stripHTML(c.Description),
		Credits:      c.Credits,
	}
	for _, u := range c.Units {
		unit := Unit{
			Title:     u.Title,
			Sequence:  u.Sequence,
			Current:   u.Current,
			StartDate: dateShort(u.StartDate),
			EndDate:   dateShort(u.EndDate),
		}
		for _, a := range u.Assessments {
			unit.Assessments = append(unit.Assessments, Assessment{
				ID:       a.ID,
				Title:    a.Title,
				Type:     a.Type,
				DueDate:  dateShort(a.DueDate),
				Points:   a.Points,
				Sequence: a.Sequence,
			})
		}
		detail.Units = append(detail.Units, unit)
	}
	if includeClassmates {
		for _, s := range c.Students {
			if s.Status == "DROPPED" {
				continue
			}
			if name := userName(s.User); name != "" {
				detail.Classmates = append(detail.Classmates, name)
			}
		}
	}
	return detail
}

func cleanGradeReport(o rawGradeOverview) GradeReport {
	report := GradeReport{}
	if o.FinalGrade != nil {
		report.FinalGrade = o.FinalGrade.GradeValue
		report.FinalPoints = o.FinalGrade.FinalPoints
		report.MaxPoints = o.FinalGrade.MaxPoints
		report.IsPublished = o.FinalGrade.IsPublished
	}
	for _, g := range o.Grades {
		item := GradeItem{
			Assessment: g.Assessment.Title,
			Type:       g.Assessment.Type,
			Status:     g.Status,
			Points:     g.FinalPoints,
			MaxPoints:  g.Assessment.Points,
			DueDate:    dateShort(g.DueDate),
		}
		if item.DueDate == "" {
			item.DueDate = dateShort(g.Assessment.DueDate)
		}
		if g.AssignmentSubmission != nil {
			item.SubmissionDate = dateShort(g.AssignmentSubmission.SubmissionDate)
		}
		if g.FinalComment != nil {
			item.Comment = stripHTML(g.FinalComment.Comment)
		}
		report.Items = append(report.Items, item)
	}
	return report
}

func cleanForum(f rawForum) ForumSummary {
	return ForumSummary{
		ForumID:     f.ForumID,
		Title:       stripHTML(f.Title),
		Description: stripHTML(f.Description),
		StartDate:   dateShort(f.StartDate),
		DueDate:     dateShort(f.DueDate),
		TotalPosts:  int(f.TotalPosts),
	}
}

func cleanPost(p rawPost) Post {
	post := Post{
		ID:          p.ID,
		Content:     stripHTML(p.Content),
		PublishDate: dateShort(p.PublishDate),
	}
	if p.CreatedBy != nil {
		post.Author = userName(p.CreatedBy.User)
		post.Role = p.CreatedBy.BaseRoleName
	}
	for _, r := range p.Replies {
		post.Replies = append(post.Replies, cleanPost(r))
	}
	return post
}

func cleanAnnouncements(forums []rawAnnouncementForum) []Announcement {
	var out []Announcement
	for _, f := range forums {
		for _, p := range f.Posts {
			a := Announcement{
				Title:       stripHTML(f.Title),
				Content:     stripHTML(p.Content),
				PublishDate: dateShort(p.PublishDate),
			}
			if p.CreatedBy != nil {
				a.Author = userName(p.CreatedBy.User)
			}
			out = append(out, a)
		}
	}
	return out
}

func cleanNotificationCounts(b rawNotificationBucket) []NotificationCount {
	var out []NotificationCount
	for _, c := range b.Classes {
		if int(c.Count) == 0 {
			continue
		}
		out = append(out, NotificationCount{ClassID: c.ClassID, Count: int(c.Count)})
	}
	return out
}
