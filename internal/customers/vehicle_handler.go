package customers

import (
	"fmt"
	"strings"

	"taller-backend/internal/audit"
	"taller-backend/internal/database"
	"taller-backend/internal/models"
	"taller-backend/internal/scope"
	"taller-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type VehicleRequest struct {
	CustomerID     uint   `json:"customer_id" validate:"required"`
	Brand          string `json:"brand" validate:"max=60"`
	Model          string `json:"model" validate:"required,max=60"`
	Year           int    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	Plate          string `json:"plate" validate:"required,max=15"`
	VIN            string `json:"vin" validate:"max=30"`
	Color          string `json:"color" validate:"max=30"`
	VehicleType    string `json:"vehicle_type" validate:"max=30"`
	Mileage        int    `json:"mileage" validate:"gte=0"`
	OrganizationID *uint  `json:"organization_id"`
}

func (r VehicleRequest) apply(v *models.Vehicle) {
	v.CustomerID = r.CustomerID
	v.Brand = strings.TrimSpace(r.Brand)
	v.Model = strings.TrimSpace(r.Model)
	v.Year = r.Year
	v.Plate = NormalizePlate(r.Plate)
	v.VIN = strings.ToUpper(strings.TrimSpace(r.VIN))
	v.Color = strings.TrimSpace(r.Color)
	v.VehicleType = strings.TrimSpace(r.VehicleType)
	v.Mileage = r.Mileage
}

// NormalizePlate: patentes en mayúsculas y sin espacios.
func NormalizePlate(p string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(p), " ", ""))
}

func FindVehicle(orgID, id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := database.DB.Where("organization_id = ? AND id = ?", orgID, id).First(&v).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Vehículo no encontrado")
	}
	return &v, nil
}

func saveVehicle(v *models.Vehicle) error {
	if err := database.DB.Save(v).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fiber.NewError(fiber.StatusConflict, "Ya existe un vehículo con esa patente")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el vehículo")
	}
	return nil
}

// POST /api/vehicles
func CreateVehicleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body VehicleRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		caller, err := scope.Resolve(c, body.OrganizationID)
		if err != nil {
			return err
		}
		if _, err := FindCustomer(caller.OrganizationID, body.CustomerID); err != nil {
			return err
		}

		vehicle := models.Vehicle{OrganizationID: caller.OrganizationID}
		body.apply(&vehicle)
		if err := saveVehicle(&vehicle); err != nil {
			return err
		}

		_ = audit.Record(nil, caller, audit.EntityVehicle, vehicle.ID, models.AuditActionCreate,
			fmt.Sprintf("Vehículo creado: %s", vehicle.Plate), nil, vehicle)

		return c.Status(fiber.StatusCreated).JSON(vehicle)
	}
}

// GET /api/vehicles?customer_id=&search=
func ListVehiclesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("organization_id = ?", orgID)

		customerID, err := scope.QueryUint(c, "customer_id")
		if err != nil {
			return err
		}
		if customerID != nil {
			dbq = dbq.Where("customer_id = ?", *customerID)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			dbq = dbq.Where("LOWER(plate) LIKE ? OR LOWER(model) LIKE ? OR LOWER(brand) LIKE ?", like, like, like)
		}

		var vehicles []models.Vehicle
		if err := dbq.Order("plate asc").Find(&vehicles).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los vehículos")
		}
		return c.JSON(vehicles)
	}
}

// GET /api/vehicles/:id
func GetVehicleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := scope.Organization(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		vehicle, err := FindVehicle(orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(vehicle)
	}
}

// PUT /api/vehicles/:id
func UpdateVehicleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		vehicle, err := FindVehicle(caller.OrganizationID, id)
		if err != nil {
			return err
		}
		before := *vehicle

		var body VehicleRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if body.CustomerID != vehicle.CustomerID {
			if _, err := FindCustomer(caller.OrganizationID, body.CustomerID); err != nil {
				return err
			}
		}
		body.apply(vehicle)
		if err := saveVehicle(vehicle); err != nil {
			return err
		}

		_ = audit.Record(nil, caller, audit.EntityVehicle, vehicle.ID, models.AuditActionUpdate,
			fmt.Sprintf("Vehículo actualizado: %s", vehicle.Plate), before, vehicle)

		return c.JSON(vehicle)
	}
}

// DELETE /api/vehicles/:id
func DeleteVehicleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := scope.Resolve(c, nil)
		if err != nil {
			return err
		}
		id, err := scope.ParamID(c, "id")
		if err != nil {
			return err
		}

		vehicle, err := FindVehicle(caller.OrganizationID, id)
		if err != nil {
			return err
		}

		var orders int64
		database.DB.Model(&models.WorkOrder{}).Where("vehicle_id = ?", id).Count(&orders)
		if orders > 0 {
			return fiber.NewError(fiber.StatusConflict, "El vehículo tiene órdenes de trabajo y no se puede eliminar")
		}

		if err := database.DB.Delete(&models.Vehicle{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el vehículo")
		}

		_ = audit.Record(nil, caller, audit.EntityVehicle, vehicle.ID, models.AuditActionDelete,
			fmt.Sprintf("Vehículo eliminado: %s", vehicle.Plate), vehicle, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
