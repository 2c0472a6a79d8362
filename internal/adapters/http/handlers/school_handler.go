package handlers

import (
	"errors"
	"strconv"

	"escolapay/internal/core/services"
	"escolapay/internal/pkg/response"
	"escolapay/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// SchoolHandler handles school and division administration endpoints
type SchoolHandler struct {
	schoolService *services.SchoolService
}

// NewSchoolHandler creates a new school handler
func NewSchoolHandler(schoolService *services.SchoolService) *SchoolHandler {
	return &SchoolHandler{schoolService: schoolService}
}

// Create registers a school
// @Summary Create school
// @Tags Schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SchoolInput true "School data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/schools [post]
func (h *SchoolHandler) Create(c *fiber.Ctx) error {
	var req services.SchoolInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	school, err := h.schoolService.CreateSchool(c.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrSchoolNameTaken) {
			return response.Conflict(c, "School name already in use")
		}
		return response.InternalServerError(c, "Failed to create school")
	}

	return response.Created(c, "School created successfully", school)
}

// List lists schools
// @Summary List schools
// @Tags Schools
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/schools [get]
func (h *SchoolHandler) List(c *fiber.Ctx) error {
	schools, err := h.schoolService.ListSchools(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list schools")
	}
	return response.Success(c, "Schools retrieved successfully", schools)
}

// Get fetches one school
// @Summary Get school
// @Tags Schools
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/schools/{id} [get]
func (h *SchoolHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid school ID")
	}

	school, err := h.schoolService.GetSchool(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrSchoolNotFound) {
			return response.NotFound(c, "School not found")
		}
		return response.InternalServerError(c, "Failed to get school")
	}

	return response.Success(c, "School retrieved successfully", school)
}

// Update renames a school
// @Summary Update school
// @Tags Schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Param body body services.SchoolInput true "School data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/schools/{id} [put]
func (h *SchoolHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid school ID")
	}

	var req services.SchoolInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	school, err := h.schoolService.UpdateSchool(c.Context(), uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSchoolNotFound):
			return response.NotFound(c, "School not found")
		case errors.Is(err, services.ErrSchoolNameTaken):
			return response.Conflict(c, "School name already in use")
		default:
			return response.InternalServerError(c, "Failed to update school")
		}
	}

	return response.Success(c, "School updated successfully", school)
}

// Delete removes a school
// @Summary Delete school
// @Description Refused while students reference any of its divisions
// @Tags Schools
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/schools/{id} [delete]
func (h *SchoolHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid school ID")
	}

	if err := h.schoolService.DeleteSchool(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrSchoolNotFound):
			return response.NotFound(c, "School not found")
		case errors.Is(err, services.ErrHasStudents):
			return response.Conflict(c, "School still has students")
		default:
			return response.InternalServerError(c, "Failed to delete school")
		}
	}

	return response.Success(c, "School deleted successfully", nil)
}

// CreateDivision adds a division to a school
// @Summary Create division
// @Tags Schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Param body body services.DivisionInput true "Division data"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/schools/{id}/divisions [post]
func (h *SchoolHandler) CreateDivision(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid school ID")
	}

	var req services.DivisionInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	division, err := h.schoolService.CreateDivision(c.Context(), uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSchoolNotFound):
			return response.NotFound(c, "School not found")
		case errors.Is(err, services.ErrDivisionExists):
			return response.Conflict(c, "Division already exists for that school and year")
		default:
			return response.InternalServerError(c, "Failed to create division")
		}
	}

	return response.Created(c, "Division created successfully", division)
}

// ListDivisions lists a school's divisions
// @Summary List divisions
// @Tags Schools
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/schools/{id}/divisions [get]
func (h *SchoolHandler) ListDivisions(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid school ID")
	}

	divisions, err := h.schoolService.ListDivisions(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrSchoolNotFound) {
			return response.NotFound(c, "School not found")
		}
		return response.InternalServerError(c, "Failed to list divisions")
	}

	return response.Success(c, "Divisions retrieved successfully", divisions)
}
