package halo

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"
)

const (
	presignPath      = "/api/v1/orchestrate/generate-presigned-urls"
	uploadStatusPath = "/api/v1/orchestrate/fileUploadStatus"
	submitPathFmt    = "/api/v1/orchestrate/resource/assignment_resource/%s/submit"
)

// Submitter drives the assignment submission flow: upload files one at a
// time, then submit the attached set. Attached resource ids are tracked per
// assessment so a submit call can confirm what it is about to finalize.
type Submitter struct {
	client *Client

	mu       sync.Mutex
	attached map[string][]string // assessment id -> uploaded resource ids
}

func NewSubmitter(client *Client) *Submitter {
	return &Submitter{
		client:   client,
		attached: make(map[string][]string),
	}
}

// resourceSignature ties a minted resource to its class and assessment. The
// orchestrate endpoint rejects presign requests without it.
type resourceSignature struct {
	CourseClassID                string  `json:"courseClassId"`
	CourseClassAssessmentID      string  `json:"courseClassAssessmentId"`
	CourseClassAssessmentGroupID *string `json:"courseClassAssessmentGroupId"`
}

type presignRequest struct {
	Type                string            `json:"type"`
	Kind                string            `json:"kind"`
	Description         string            `json:"description"`
	FileName            string            `json:"fileName"`
	FileSize            int               `json:"fileSize"`
	FileType            string            `json:"fileType"`
	StorageProviderEnum []string          `json:"storageProviderEnum"`
	ResourceSignature   resourceSignature `json:"resourceSignature"`
}

type presignResponse struct {
	ResourceID  string `json:"resourceId"`
	S3UploadURL string `json:"s3UploadUrl"`
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// fileTypeFor returns the short type string the presign endpoint expects,
// e.g. "pdf" or "docx".
func fileTypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "bin"
	}
	return ext
}

// UploadFile uploads one file and attaches it to the assessment's draft
// submission: presign, storage PUT, attach mutation, upload confirmation.
// Returns the resource id the gateway assigned.
func (s *Submitter) UploadFile(ctx context.Context, class ClassContext, assessmentID, fileName string, data []byte) (string, error) {
	presigned, err := s.presign(ctx, class, assessmentID, fileName, len(data))
	if err != nil {
		return "", err
	}
	if err := s.client.Upload(ctx, presigned.S3UploadURL, contentTypeFor(fileName), data); err != nil {
		return "", err
	}
	if err := s.attach(ctx, class, assessmentID, presigned.ResourceID); err != nil {
		return "", err
	}
	if err := s.confirmUpload(ctx, class, presigned.ResourceID); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.attached[assessmentID] = append(s.attached[assessmentID], presigned.ResourceID)
	s.mu.Unlock()

	s.client.logger.Info("uploaded assignment file",
		"assessment", assessmentID, "file", fileName, "resource", presigned.ResourceID)
	return presigned.ResourceID, nil
}

func (s *Submitter) presign(ctx context.Context, class ClassContext, assessmentID, fileName string, size int) (*presignResponse, error) {
	req := NewRequest("generatePresignedUrls").
		ClassSlug(class.SlugID).
		CourseClass(class.ID).
		JSONBody([]presignRequest{{
			Type:                "assignment_submission",
			Kind:                "FILE",
			FileName:            fileName,
			FileSize:            size,
			FileType:            fileTypeFor(fileName),
			StorageProviderEnum: []string{"S3"},
			ResourceSignature: resourceSignature{
				CourseClassID:           class.ID,
				CourseClassAssessmentID: assessmentID,
			},
		}})
	data, err := s.client.PostJSON(ctx, presignPath, req)
	if err != nil {
		return nil, err
	}
	var urls []presignResponse
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("decoding presign response: %w", err)
	}
	if len(urls) == 0 || urls[0].S3UploadURL == "" {
		return nil, fmt.Errorf("gateway returned no upload url for %s", fileName)
	}
	return &urls[0], nil
}

func (s *Submitter) confirmUpload(ctx context.Context, class ClassContext, resourceID string) error {
	req := NewRequest("fileUploadStatus").
		ClassSlug(class.SlugID).
		CourseClass(class.ID).
		JSONBody([]map[string]any{{
			"resourceId":          resourceID,
			"status":              "COMPLETED",
			"storageProviderEnum": []string{"S3"},
		}})
	_, err := s.client.PostJSON(ctx, uploadStatusPath, req)
	return err
}

func (s *Submitter) attach(ctx context.Context, class ClassContext, assessmentID, resourceID string) error {
	req := NewRequest("BulkAssignmentResource").
		Query(MutationBulkAssignmentResource).
		Variables(map[string]any{
			"courseClassAssessmentId": assessmentID,
			"resourceIds":             []string{resourceID},
		}).
		ClassSlug(class.SlugID).
		CourseClass(class.ID)
	_, err := s.client.Query(ctx, req)
	return err
}

// assessmentInfo is the slice of the assessment record the submit body needs.
type assessmentInfo struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	RequiresLopesWrite bool   `json:"requiresLopesWrite"`
}

func (s *Submitter) assessment(ctx context.Context, class ClassContext, assessmentID string) (*assessmentInfo, error) {
	req := NewRequest("CourseClassAssessment").
		Query(QueryCourseClassAssessment).
		Variables(map[string]any{"assessmentId": assessmentID}).
		ClassSlug(class.SlugID).
		CourseClass(class.ID)
	data, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var info assessmentInfo
	if err := decode(data, "assessment", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Status returns the current draft submission for an assessment.
func (s *Submitter) Status(ctx context.Context, class ClassContext, assessmentID string) (*SubmissionStatus, error) {
	req := NewRequest("AssignmentSubmission").
		Query(QueryAssignmentSubmission).
		Variables(map[string]any{"courseClassAssessmentId": assessmentID}).
		ClassSlug(class.SlugID).
		CourseClass(class.ID)
	data, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	var raw struct {
		ID             string `json:"id"`
		Status         string `json:"status"`
		DueDate        string `json:"dueDate"`
		SubmissionDate string `json:"submissionDate"`
		Resources      []struct {
			ID                         string `json:"id"`
			IsFinal                    bool   `json:"isFinal"`
			SimilarityReportStatusEnum string `json:"similarityReportStatusEnum"`
			UploadDate                 string `json:"uploadDate"`
			Resource                   struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"resource"`
		} `json:"resources"`
	}
	if err := decode(data, "assignmentSubmission", &raw); err != nil {
		return nil, err
	}
	status := &SubmissionStatus{
		SubmissionID:   raw.ID,
		Status:         raw.Status,
		DueDate:        dateShort(raw.DueDate),
		SubmissionDate: dateShort(raw.SubmissionDate),
	}
	for _, r := range raw.Resources {
		status.Resources = append(status.Resources, SubmissionResource{
			SubmissionResourceID: r.ID,
			ResourceID:           r.Resource.ID,
			Name:                 r.Resource.Name,
			IsFinal:              r.IsFinal,
			SimilarityStatus:     r.SimilarityReportStatusEnum,
			UploadDate:           dateShort(r.UploadDate),
		})
	}
	return status, nil
}

// Submit finalizes the draft submission for an assessment. At least one file
// must have been attached, either during this process or in an earlier
// session visible on the draft.
func (s *Submitter) Submit(ctx context.Context, class ClassContext, assessmentID string) (*SubmissionStatus, error) {
	info, err := s.assessment(ctx, class, assessmentID)
	if err != nil {
		return nil, err
	}

	status, err := s.Status(ctx, class, assessmentID)
	if err != nil {
		return nil, err
	}
	if len(status.Resources) == 0 {
		return nil, fmt.Errorf("assessment %s has no uploaded files to submit", assessmentID)
	}

	resourceInfo := make([]map[string]any, 0, len(status.Resources))
	for _, r := range status.Resources {
		similarity := r.SimilarityStatus
		if similarity == "" {
			similarity = "NOT_SUBMITTED"
		}
		resourceInfo = append(resourceInfo, map[string]any{
			"assignmentSubmissionResourceId": r.SubmissionResourceID,
			"resourceId":                     r.ResourceID,
			"fileName":                       r.Name,
			"similarityReportStatus":         similarity,
		})
	}

	req := NewRequest("submitAssignment").
		ClassSlug(class.SlugID).
		CourseClass(class.ID).
		JSONBody(map[string]any{
			"classId":            class.ID,
			"className":          class.Name,
			"assessmentId":       assessmentID,
			"assessmentTitle":    info.Title,
			"requiresLopeswrite": info.RequiresLopesWrite,
			"resourceInfo":       resourceInfo,
		})
	submitPath := fmt.Sprintf(submitPathFmt, status.SubmissionID)
	if _, err := s.client.PostJSON(ctx, submitPath, req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.attached, assessmentID)
	s.mu.Unlock()

	s.client.logger.Info("submitted assignment",
		"assessment", assessmentID, "submission", status.SubmissionID, "files", len(status.Resources))
	return s.Status(ctx, class, assessmentID)
}

// Attached reports the resource ids uploaded for an assessment in this
// process.
func (s *Submitter) Attached(assessmentID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.attached[assessmentID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
