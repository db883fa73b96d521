package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/shared"
)

type LessonHandler struct {
	catalogSvc CatalogServiceInterface
	liveSvc    LiveServiceInterface
}

func NewLessonHandler(catalogSvc CatalogServiceInterface, liveSvc LiveServiceInterface) *LessonHandler {
	return &LessonHandler{
		catalogSvc: catalogSvc,
		liveSvc:    liveSvc,
	}
}

// @Summary List lessons
// @Description Course outline. Payloads of locked lessons are omitted.
// @Tags lessons
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} shared.Response{data=dto.LessonListResponse}
// @Router /api/v1/courses/{courseId}/lessons [get]
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	lessons, err := h.catalogSvc.ListLessons(c.Params("courseId"), actorFromCtx(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", lessons)
}

// @Summary Create lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security Bearer
// @Param courseId path string true "Course ID"
// @Param request body dto.CreateLessonRequest true "Lesson"
// @Success 201 {object} shared.Response{data=model.Lesson}
// @Router /api/v1/courses/{courseId}/lessons [post]
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	var req dto.CreateLessonRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	lesson, err := h.catalogSvc.CreateLesson(actorFromCtx(c), c.Params("courseId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Lesson created", lesson)
}

// @Summary Update lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security Bearer
// @Param lessonId path string true "Lesson ID"
// @Param request body dto.UpdateLessonRequest true "Fields to change"
// @Success 200 {object} shared.Response{data=model.Lesson}
// @Router /api/v1/lessons/{lessonId} [put]
func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	var req dto.UpdateLessonRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	lesson, err := h.catalogSvc.UpdateLesson(actorFromCtx(c), c.Params("lessonId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Lesson updated", lesson)
}

// @Summary Delete lesson
// @Tags lessons
// @Produce json
// @Security Bearer
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/lessons/{lessonId} [delete]
func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	if err := h.catalogSvc.DeleteLesson(actorFromCtx(c), c.Params("lessonId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Lesson deleted", nil)
}

// @Summary Reorder lessons
// @Tags lessons
// @Accept json
// @Produce json
// @Security Bearer
// @Param courseId path string true "Course ID"
// @Param request body dto.ReorderLessonsRequest true "New positions"
// @Success 200 {object} shared.Response{data=[]dto.LessonResponse}
// @Failure 409 {object} shared.Response
// @Router /api/v1/courses/{courseId}/lessons/reorder [put]
func (h *LessonHandler) ReorderLessons(c *fiber.Ctx) error {
	var req dto.ReorderLessonsRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	lessons, err := h.catalogSvc.ReorderLessons(actorFromCtx(c), c.Params("courseId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Lessons reordered", lessons)
}

// @Summary Join live lesson
// @Tags lessons
// @Produce json
// @Security Bearer
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} shared.Response{data=dto.LiveJoinResponse}
// @Failure 503 {object} shared.Response
// @Router /api/v1/lessons/{lessonId}/live/join [get]
func (h *LessonHandler) JoinLive(c *fiber.Ctx) error {
	join, err := h.liveSvc.JoinLiveLesson(actorFromCtx(c), c.Params("lessonId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", join)
}
