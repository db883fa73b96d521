package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/course_api/shared"
)

type EnrollmentHandler struct {
	enrollmentSvc  EnrollmentServiceInterface
	certificateSvc CertificateServiceInterface
}

func NewEnrollmentHandler(enrollmentSvc EnrollmentServiceInterface, certificateSvc CertificateServiceInterface) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentSvc:  enrollmentSvc,
		certificateSvc: certificateSvc,
	}
}

// @Summary My enrollments
// @Tags enrollments
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=[]model.Enrollment}
// @Router /api/v1/enrollments/me [get]
func (h *EnrollmentHandler) ListMine(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	enrollments, err := h.enrollmentSvc.ListForLearner(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", enrollments)
}

// @Summary Issue certificate
// @Description Issues the completion certificate once the course is fully completed
// @Tags enrollments
// @Produce json
// @Security Bearer
// @Param enrollmentId path string true "Enrollment ID"
// @Success 201 {object} shared.Response{data=dto.CertificateResponse}
// @Failure 400 {object} shared.Response
// @Failure 409 {object} shared.Response
// @Router /api/v1/enrollments/{enrollmentId}/certificate [post]
func (h *EnrollmentHandler) IssueCertificate(c *fiber.Ctx) error {
	cert, err := h.certificateSvc.IssueCertificate(actorFromCtx(c), c.Params("enrollmentId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Certificate issued", cert)
}

// @Summary Suspend enrollment
// @Tags admin
// @Produce json
// @Security Bearer
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} shared.Response{data=model.Enrollment}
// @Router /api/v1/enrollments/{enrollmentId}/suspend [put]
func (h *EnrollmentHandler) Suspend(c *fiber.Ctx) error {
	enrollment, err := h.enrollmentSvc.Suspend(c.Params("enrollmentId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Enrollment suspended", enrollment)
}

// @Summary Resume enrollment
// @Tags admin
// @Produce json
// @Security Bearer
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} shared.Response{data=model.Enrollment}
// @Router /api/v1/enrollments/{enrollmentId}/resume [put]
func (h *EnrollmentHandler) Resume(c *fiber.Ctx) error {
	enrollment, err := h.enrollmentSvc.Resume(c.Params("enrollmentId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Enrollment resumed", enrollment)
}
