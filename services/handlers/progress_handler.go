package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/shared"
)

type ProgressHandler struct {
	progressSvc ProgressServiceInterface
}

func NewProgressHandler(progressSvc ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{
		progressSvc: progressSvc,
	}
}

// @Summary Update lesson progress
// @Description Apply a playback action: start, update, end, seek or complete
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param lessonId path string true "Lesson ID"
// @Param request body dto.ProgressActionRequest true "Playback action"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Failure 409 {object} shared.Response
// @Router /api/v1/lessons/{lessonId}/progress [put]
func (h *ProgressHandler) UpdateProgress(c *fiber.Ctx) error {
	var req dto.ProgressActionRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	userID := c.Locals(shared.UserID).(string)
	progress, err := h.progressSvc.UpdateProgress(userID, c.Params("lessonId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Progress updated", progress)
}

// @Summary Get lesson progress
// @Tags progress
// @Produce json
// @Security Bearer
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/lessons/{lessonId}/progress [get]
func (h *ProgressHandler) GetLessonProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	progress, err := h.progressSvc.GetLessonProgress(userID, c.Params("lessonId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", progress)
}

// @Summary Get course progress
// @Description All progress records of the caller's enrollment
// @Tags progress
// @Produce json
// @Security Bearer
// @Param courseId path string true "Course ID"
// @Success 200 {object} shared.Response{data=dto.CourseProgressResponse}
// @Router /api/v1/courses/{courseId}/progress [get]
func (h *ProgressHandler) GetCourseProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	progress, err := h.progressSvc.ListCourseProgress(userID, c.Params("courseId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", progress)
}

// @Summary Submit quiz
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param lessonId path string true "Lesson ID"
// @Param request body dto.QuizSubmitRequest true "Answer indexes in question order"
// @Success 200 {object} shared.Response{data=dto.QuizResultResponse}
// @Router /api/v1/lessons/{lessonId}/quiz [post]
func (h *ProgressHandler) SubmitQuiz(c *fiber.Ctx) error {
	var req dto.QuizSubmitRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	userID := c.Locals(shared.UserID).(string)
	result, err := h.progressSvc.SubmitQuiz(userID, c.Params("lessonId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Quiz graded", result)
}

// @Summary Submit assignment
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param lessonId path string true "Lesson ID"
// @Param request body dto.AssignmentSubmitRequest true "Submission"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/lessons/{lessonId}/assignment [post]
func (h *ProgressHandler) SubmitAssignment(c *fiber.Ctx) error {
	var req dto.AssignmentSubmitRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	userID := c.Locals(shared.UserID).(string)
	progress, err := h.progressSvc.SubmitAssignment(userID, c.Params("lessonId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Assignment submitted", progress)
}

// @Summary Request an assignment attachment upload URL
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param lessonId path string true "Lesson ID"
// @Param request body dto.AttachmentUploadRequest true "Attachment"
// @Success 200 {object} shared.Response{data=dto.AttachmentUploadResponse}
// @Router /api/v1/lessons/{lessonId}/assignment/upload-url [post]
func (h *ProgressHandler) AssignmentUploadURL(c *fiber.Ctx) error {
	var req dto.AttachmentUploadRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	userID := c.Locals(shared.UserID).(string)
	upload, err := h.progressSvc.AssignmentUploadURL(userID, c.Params("lessonId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Upload URL created", upload)
}

// @Summary Grade assignment
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param progressId path string true "Progress ID"
// @Param request body dto.GradeAssignmentRequest true "Grade"
// @Success 200 {object} shared.Response{data=model.Progress}
// @Router /api/v1/progress/{progressId}/assignment/grade [put]
func (h *ProgressHandler) GradeAssignment(c *fiber.Ctx) error {
	var req dto.GradeAssignmentRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	progress, err := h.progressSvc.GradeAssignment(actorFromCtx(c), c.Params("progressId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Assignment graded", progress)
}
