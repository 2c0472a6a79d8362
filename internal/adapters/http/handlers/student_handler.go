package handlers

import (
	"errors"
	"strconv"

	"escolapay/internal/core/services"
	"escolapay/internal/pkg/response"
	"escolapay/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// StudentHandler handles student administration endpoints
type StudentHandler struct {
	studentService *services.StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentService *services.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// Create registers a student
// @Summary Create student
// @Description Register a student; the school and division are created when
// @Description absent and the initial credential is the student's DNI
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateStudentInput true "Student data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/students [post]
func (h *StudentHandler) Create(c *fiber.Ctx) error {
	var req services.CreateStudentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	student, err := h.studentService.CreateStudent(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDNITaken):
			return response.Conflict(c, "DNI already registered")
		case errors.Is(err, services.ErrProductNotFound):
			return response.NotFound(c, "Product not found")
		default:
			return response.InternalServerError(c, "Failed to create student")
		}
	}

	return response.Created(c, "Student created successfully", student.ToResponse())
}

// List lists students
// @Summary List students
// @Description List students with pagination and filters
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param division_id query int false "Filter by division"
// @Param product_id query int false "Filter by product"
// @Param search query string false "Match DNI or last name"
// @Success 200 {object} response.Response
// @Router /admin/students [get]
func (h *StudentHandler) List(c *fiber.Ctx) error {
	input := &services.ListStudentsInput{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
		Search: c.Query("search"),
	}
	if v := c.QueryInt("division_id", 0); v > 0 {
		id := uint(v)
		input.SchoolDivisionID = &id
	}
	if v := c.QueryInt("product_id", 0); v > 0 {
		id := uint(v)
		input.ProductID = &id
	}

	out, err := h.studentService.ListStudents(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list students")
	}

	return response.Success(c, "Students retrieved successfully", out)
}

// Get fetches one student
// @Summary Get student
// @Description Get one student with school, division and product
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/students/{id} [get]
func (h *StudentHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	student, err := h.studentService.GetStudent(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrStudentNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to get student")
	}

	return response.Success(c, "Student retrieved successfully", student.ToResponse())
}

// Update patches a student
// @Summary Update student
// @Description Patch student data; a total change rebalances against the
// @Description amount already paid
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param body body services.UpdateStudentInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/students/{id} [put]
func (h *StudentHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var req services.UpdateStudentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	student, err := h.studentService.UpdateStudent(c.Context(), uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
			return response.NotFound(c, "Student not found")
		case errors.Is(err, services.ErrProductNotFound):
			return response.NotFound(c, "Product not found")
		default:
			return response.InternalServerError(c, "Failed to update student")
		}
	}

	return response.Success(c, "Student updated successfully", student.ToResponse())
}

// Delete removes a student
// @Summary Delete student
// @Description Soft-delete a student; refused while payments exist
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/students/{id} [delete]
func (h *StudentHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	if err := h.studentService.DeleteStudent(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
			return response.NotFound(c, "Student not found")
		case errors.Is(err, services.ErrStudentHasPayments):
			return response.Conflict(c, "Student has payments on record")
		default:
			return response.InternalServerError(c, "Failed to delete student")
		}
	}

	return response.Success(c, "Student deleted successfully", nil)
}

// Import bulk-creates students from a spreadsheet
// @Summary Import roster
// @Description Bulk-create students from an xlsx roster; duplicates are
// @Description skipped and bad rows reported per line
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Roster spreadsheet (xlsx)"
// @Param product_id formData int false "Product to link imported students to"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/students/import [post]
func (h *StudentHandler) Import(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Roster file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Could not read the roster file")
	}
	defer file.Close()

	var productID *uint
	if raw := c.FormValue("product_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid product_id")
		}
		id := uint(v)
		productID = &id
	}

	result, err := h.studentService.ImportRoster(c.Context(), file, productID)
	if err != nil {
		return response.BadRequest(c, "Could not parse the roster: "+err.Error())
	}

	return response.Success(c, "Roster imported", result)
}
