package workorders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taller-backend/internal/audit"
	"taller-backend/internal/customers"
	"taller-backend/internal/database"
	"taller-backend/internal/metrics"
	"taller-backend/internal/models"
	"taller-backend/internal/numbering"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type WorkOrderRequest struct {
	CustomerID     uint        `json:"customer_id" validate:"required"`
	VehicleID      uint        `json:"vehicle_id" validate:"required"`
	EmployeeID     *uint       `json:"employee_id"`
	AssignedTo     string      `json:"assigned_to" validate:"max=100"`
	CreationDate   string      `json:"creation_date"`
	Description    string      `json:"description" validate:"max=1000"`
	Status         string      `json:"status"`
	Parts          []PartInput `json:"parts" validate:"dive"`
	ServiceItems   []ItemInput `json:"service_items" validate:"dive"`
	ProductItems   []ItemInput `json:"product_items" validate:"dive"`
	Notes          string      `json:"notes" validate:"max=2000"`
	OrganizationID *uint       `json:"organization_id"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type WorkOrderResponse struct {
	models.WorkOrder
	CustomerName string `json:"customer_name"`
	VehiclePlate string `json:"vehicle_plate"`
	VehicleModel string `json:"vehicle_model"`
}

type workOrderRow struct {
	models.WorkOrder
	CustomerName string
	VehiclePlate string
	VehicleModel string
}

func findWorkOrder(orgID, id uint) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	if err := database.DB.Where("organization_id = ? AND id = ?", orgID, id).First(&wo).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Orden de trabajo no encontrada")
	}
	return &wo, nil
}

func setStatus(wo *models.WorkOrder, status string, now time.Time) {
	wo.Status = status
	if status == models.WorkOrderFinished {
		if wo.CompletedAt == nil {
			wo.CompletedAt = &now
		}
		return
	}
	wo.CompletedAt = nil
}

// fill valida cliente, vehículo y empleado y calcula el costo final.
func fill(wo *models.WorkOrder, org models.Organization, body WorkOrderRequest) error {
	customer, err := customers.FindCustomer(org.ID, body.CustomerID)
	if err != nil {
		return err
	}
	vehicle, err := customers.FindVehicle(org.ID, body.VehicleID)
	if err != nil {
		return err
	}
	if vehicle.CustomerID != customer.ID {
		return fiber.NewError(fiber.StatusBadRequest, "El vehículo no pertenece al cliente")
	}

	wo.AssignedTo = strings.TrimSpace(body.AssignedTo)
	wo.EmployeeID = nil
	if body.EmployeeID != nil {
		var emp models.Employee
		if err := database.DB.Where("organization_id = ? AND id = ?", org.ID, *body.EmployeeID).First(&emp).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Empleado no encontrado")
		}
		wo.EmployeeID = &emp.ID
		wo.AssignedTo = emp.Name
	}

	parts, err := buildParts(org, body.Parts)
	if err != nil {
		return err
	}
	services, err := buildItems(org, body.ServiceItems)
	if err != nil {
		return err
	}
	products, err := buildItems(org, body.ProductItems)
	if err != nil {
		return err
	}

	wo.CustomerID = customer.ID
	wo.VehicleID = vehicle.ID
	wo.Description = strings.TrimSpace(body.Description)
	wo.Notes = body.Notes
	wo.Parts = parts
	wo.ServiceItems = services
	wo.ProductItems = products
	wo.FinalCost = FinalCost(parts, services, products)
	return nil
}

func loadOrganization(orgID uint) (models.Organization, error) {
	var org models.Organization
	if err := database.DB.First(&org, "id = ?", orgID).Error; err != nil {
		return org, fiber.NewError(fiber.StatusNotFound, "Taller no encontrado")
	}
	return org, nil
}

// POST /api/work-orders
func CreateWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WorkOrderRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}
		org, err := loadOrganization(caller.OrganizationID)
		if err != nil {
			return err
		}

		status := models.WorkOrderReceived
		if body.Status != "" {
			if !validStatus(body.Status) {
				return fiber.NewError(fiber.StatusBadRequest, "Estado de orden inválido")
			}
			status = body.Status
		}
		created, err := validation.DateOr("creation_date", body.CreationDate, time.Now())
		if err != nil {
			return err
		}

		wo := models.WorkOrder{OrganizationID: org.ID, CreationDate: created}
		if err := fill(&wo, org, body); err != nil {
			return err
		}
		setStatus(&wo, status, time.Now())

		unlock, err := numbering.Lock(c.UserContext(), numbering.WorkOrderKey(org.ID))
		if err != nil {
			if errors.Is(err, numbering.ErrLockTimeout) {
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo reservar la numeración")
		}
		defer unlock()

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			number, err := numbering.NextWorkOrderNumber(tx, org.ID)
			if err != nil {
				return err
			}
			wo.OrderNumber = number
			if err := tx.Create(&wo).Error; err != nil {
				return err
			}
			return audit.Record(tx, caller, audit.EntityWorkOrder, wo.ID, models.AuditActionCreate,
				fmt.Sprintf("Orden de trabajo #%d creada", wo.OrderNumber), nil, wo)
		})
		if err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "El número de orden ya existe")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar la orden de trabajo")
		}

		metrics.DocumentCreated("work_order")
		return c.Status(fiber.StatusCreated).JSON(wo)
	}
}

// GET /api/work-orders?state=open|finished&status=&customer_id=&vehicle_id=
func ListWorkOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.WorkOrder{}).
			Select("work_orders.*, customers.name AS customer_name, vehicles.plate AS vehicle_plate, vehicles.model AS vehicle_model").
			Joins("LEFT JOIN customers ON customers.id = work_orders.customer_id").
			Joins("LEFT JOIN vehicles ON vehicles.id = work_orders.vehicle_id").
			Where("work_orders.organization_id = ?", orgID)

		switch c.Query("state") {
		case "":
		case "open":
			dbq = dbq.Where("work_orders.status <> ?", models.WorkOrderFinished)
		case "finished":
			dbq = dbq.Where("work_orders.status = ?", models.WorkOrderFinished)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "state debe ser open o finished")
		}
		if v := c.Query("status"); v != "" {
			dbq = dbq.Where("work_orders.status = ?", v)
		}
		customerID, err := scope.QueryUint(c, "customer_id")
		if err != nil {
			return err
		}
		if customerID != nil {
			dbq = dbq.Where("work_orders.customer_id = ?", *customerID)
		}
		vehicleID, err := scope.QueryUint(c, "vehicle_id")
		if err != nil {
			return err
		}
		if vehicleID != nil {
			dbq = dbq.Where("work_orders.vehicle_id = ?", *vehicleID)
		}

		var rows []workOrderRow
		if err := dbq.Order("work_orders.order_number DESC").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las órdenes de trabajo")
		}

		res := make([]WorkOrderResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, WorkOrderResponse{r.WorkOrder, r.CustomerName, r.VehiclePlate, r.VehicleModel})
		}
		return c.JSON(res)
	}
}

// GET /api/work-orders/:id
func GetWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		wo, err := findWorkOrder(orgID, id)
		if err != nil {
			return err
		}

		var customer models.Customer
		database.DB.Select("name").First(&customer, "id = ?", wo.CustomerID)
		var vehicle models.Vehicle
		database.DB.Select("plate", "model").First(&vehicle, "id = ?", wo.VehicleID)

		return c.JSON(WorkOrderResponse{*wo, customer.Name, vehicle.Plate, vehicle.Model})
	}
}

// PUT /api/work-orders/:id
func UpdateWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		wo, err := findWorkOrder(caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *wo

		var body WorkOrderRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if body.Status != "" && !validStatus(body.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Estado de orden inválido")
		}
		org, err := loadOrganization(caller.OrganizationID)
		if err != nil {
			return err
		}
		if err := fill(wo, org, body); err != nil {
			return err
		}
		if body.CreationDate != "" {
			created, err := validation.DateOr("creation_date", body.CreationDate, wo.CreationDate)
			if err != nil {
				return err
			}
			wo.CreationDate = created
		}
		if body.Status != "" {
			setStatus(wo, body.Status, time.Now())
		}

		if err := database.DB.Save(wo).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la orden de trabajo")
		}

		_ = audit.Record(nil, caller, audit.EntityWorkOrder, wo.ID, models.AuditActionUpdate,
			fmt.Sprintf("Orden de trabajo #%d actualizada", wo.OrderNumber), before, wo)

		return c.JSON(wo)
	}
}

// PUT /api/work-orders/:id/status
func UpdateWorkOrderStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		wo, err := findWorkOrder(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		var body StatusRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if !validStatus(body.Status) {
			return fiber.NewError(fiber.StatusBadRequest, "Estado de orden inválido")
		}

		before := *wo
		setStatus(wo, body.Status, time.Now())
		if err := database.DB.Model(wo).Updates(map[string]any{
			"status":       wo.Status,
			"completed_at": wo.CompletedAt,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el estado")
		}

		_ = audit.Record(nil, caller, audit.EntityWorkOrder, wo.ID, models.AuditActionUpdate,
			fmt.Sprintf("Orden de trabajo #%d: %s -> %s", wo.OrderNumber, before.Status, wo.Status), before, wo)

		return c.JSON(wo)
	}
}

// DELETE /api/work-orders/:id
func DeleteWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}
		wo, err := findWorkOrder(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		if err := database.DB.Delete(&models.WorkOrder{}, "id = ?", wo.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la orden de trabajo")
		}

		_ = audit.Record(nil, caller, audit.EntityWorkOrder, wo.ID, models.AuditActionDelete,
			fmt.Sprintf("Orden de trabajo #%d eliminada", wo.OrderNumber), wo, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
