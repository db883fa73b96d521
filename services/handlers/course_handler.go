package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/shared"
)

type CourseHandler struct {
	catalogSvc    CatalogServiceInterface
	enrollmentSvc EnrollmentServiceInterface
}

func NewCourseHandler(catalogSvc CatalogServiceInterface, enrollmentSvc EnrollmentServiceInterface) *CourseHandler {
	return &CourseHandler{
		catalogSvc:    catalogSvc,
		enrollmentSvc: enrollmentSvc,
	}
}

// @Summary List courses
// @Description List published courses
// @Tags courses
// @Accept json
// @Produce json
// @Param category query string false "Category"
// @Param level query string false "Level" Enums(beginner, intermediate, advanced)
// @Param search query string false "Search in title and description"
// @Param instructor query string false "Instructor ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} shared.Response{data=dto.CourseListResponse}
// @Router /api/v1/courses [get]
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	var filter dto.CourseFilter
	if err := c.QueryParser(&filter); err != nil {
		return shared.NewBadRequestError(err, "Invalid query parameters")
	}
	if err := filter.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	courses, err := h.catalogSvc.ListCourses(filter)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", courses)
}

// @Summary Get course
// @Description Course detail, with the caller's enrollment when signed in
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} shared.Response{data=dto.CourseDetailResponse}
// @Router /api/v1/courses/{courseId} [get]
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.catalogSvc.GetCourse(c.Params("courseId"), actorFromCtx(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", course)
}

// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CreateCourseRequest true "Course"
// @Success 201 {object} shared.Response{data=model.Course}
// @Router /api/v1/courses [post]
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req dto.CreateCourseRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	course, err := h.catalogSvc.CreateCourse(actorFromCtx(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Course created", course)
}

// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Security Bearer
// @Param courseId path string true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} shared.Response{data=model.Course}
// @Router /api/v1/courses/{courseId} [put]
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	var req dto.UpdateCourseRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	course, err := h.catalogSvc.UpdateCourse(actorFromCtx(c), c.Params("courseId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Course updated", course)
}

// @Summary Delete course
// @Description Deletes the course with its lessons, enrollments, progress and reviews
// @Tags courses
// @Produce json
// @Security Bearer
// @Param courseId path string true "Course ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/courses/{courseId} [delete]
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	if err := h.catalogSvc.DeleteCourse(actorFromCtx(c), c.Params("courseId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Course deleted", nil)
}

// @Summary Enroll
// @Tags enrollments
// @Accept json
// @Produce json
// @Security Bearer
// @Param courseId path string true "Course ID"
// @Param request body dto.EnrollRequest false "Payment"
// @Success 201 {object} shared.Response{data=model.Enrollment}
// @Failure 409 {object} shared.Response
// @Router /api/v1/courses/{courseId}/enroll [post]
func (h *CourseHandler) Enroll(c *fiber.Ctx) error {
	var req dto.EnrollRequest
	if len(c.Body()) > 0 {
		if handled, err := bindJSON(c, &req); handled || err != nil {
			return err
		}
	}

	enrollment, err := h.enrollmentSvc.Enroll(c.Params("courseId"), actorFromCtx(c).UserID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Enrolled", enrollment)
}

// @Summary Course statistics
// @Tags courses
// @Produce json
// @Security Bearer
// @Param courseId path string true "Course ID"
// @Success 200 {object} shared.Response{data=dto.CourseStatsResponse}
// @Router /api/v1/courses/{courseId}/stats [get]
func (h *CourseHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.catalogSvc.CourseStats(actorFromCtx(c), c.Params("courseId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", stats)
}

// @Summary Review course
// @Tags courses
// @Accept json
// @Produce json
// @Security Bearer
// @Param courseId path string true "Course ID"
// @Param request body dto.ReviewRequest true "Review"
// @Success 200 {object} shared.Response{data=model.CourseReview}
// @Router /api/v1/courses/{courseId}/reviews [post]
func (h *CourseHandler) ReviewCourse(c *fiber.Ctx) error {
	var req dto.ReviewRequest
	if handled, err := bindJSON(c, &req); handled || err != nil {
		return err
	}

	review, err := h.catalogSvc.RateCourse(actorFromCtx(c), c.Params("courseId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Review saved", review)
}
