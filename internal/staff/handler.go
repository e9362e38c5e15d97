package staff

import (
	"fmt"
	"strings"
	"time"

	"taller-backend/internal/audit"
	"taller-backend/internal/database"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type EmployeeRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Position       string `json:"position" validate:"max=60"`
	Phone          string `json:"phone" validate:"max=50"`
	Email          string `json:"email" validate:"omitempty,email"`
	HireDate       string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	Active         *bool  `json:"active"`
	OrganizationID *uint  `json:"organization_id"`
}

func (r EmployeeRequest) apply(e *models.Employee) {
	e.Name = strings.TrimSpace(r.Name)
	e.Position = strings.TrimSpace(r.Position)
	e.Phone = strings.TrimSpace(r.Phone)
	e.Email = strings.TrimSpace(r.Email)
	e.HireDate = nil
	if r.HireDate != "" {
		if t, err := time.Parse("2006-01-02", r.HireDate); err == nil {
			e.HireDate = &t
		}
	}
	if r.Active != nil {
		e.Active = *r.Active
	}
}

func findEmployee(orgID, id uint) (*models.Employee, error) {
	var e models.Employee
	if err := database.DB.Where("organization_id = ? AND id = ?", orgID, id).First(&e).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Empleado no encontrado")
	}
	return &e, nil
}

// POST /api/employees
func CreateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body EmployeeRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}

		employee := models.Employee{OrganizationID: caller.OrganizationID, Active: true}
		body.apply(&employee)

		if err := database.DB.Create(&employee).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el empleado")
		}

		_ = audit.Record(nil, caller, audit.EntityEmployee, employee.ID, models.AuditActionCreate,
			fmt.Sprintf("Empleado creado: %s", employee.Name), nil, employee)

		return c.Status(fiber.StatusCreated).JSON(employee)
	}
}

// GET /api/employees?active=true
func ListEmployeesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)
		switch c.Query("active") {
		case "true":
			dbq = dbq.Where("active = ?", true)
		case "false":
			dbq = dbq.Where("active = ?", false)
		}

		var employees []models.Employee
		if err := dbq.Order("name asc").Find(&employees).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los empleados")
		}
		return c.JSON(employees)
	}
}

// GET /api/employees/:id
func GetEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		employee, err := findEmployee(orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(employee)
	}
}

// PUT /api/employees/:id
func UpdateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		employee, err := findEmployee(caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *employee

		var body EmployeeRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.apply(employee)

		if err := database.DB.Save(employee).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el empleado")
		}

		_ = audit.Record(nil, caller, audit.EntityEmployee, employee.ID, models.AuditActionUpdate,
			fmt.Sprintf("Empleado actualizado: %s", employee.Name), before, employee)

		return c.JSON(employee)
	}
}

// DELETE /api/employees/:id
func DeleteEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		employee, err := findEmployee(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		var orders int64
		database.DB.Model(&models.WorkOrder{}).Where("employee_id = ?", id).Count(&orders)
		if orders > 0 {
			return fiber.NewError(fiber.StatusConflict, "El empleado tiene órdenes de trabajo asignadas; desactivalo en lugar de eliminarlo")
		}

		if err := database.DB.Delete(&models.Employee{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el empleado")
		}

		_ = audit.Record(nil, caller, audit.EntityEmployee, employee.ID, models.AuditActionDelete,
			fmt.Sprintf("Empleado eliminado: %s", employee.Name), employee, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
