// Package server arma la aplicación fiber con todas las rutas de la API.
package server

import (
	"errors"
	"strings"

	"taller-backend/internal/admin"
	"taller-backend/internal/audit"
	"taller-backend/internal/auth"
	"taller-backend/internal/catalog"
	"taller-backend/internal/checks"
	"taller-backend/internal/collections"
	"taller-backend/internal/config"
	"taller-backend/internal/customers"
	"taller-backend/internal/dashboard"
	"taller-backend/internal/logger"
	"taller-backend/internal/middleware"
	"taller-backend/internal/models"
	"taller-backend/internal/payments"
	"taller-backend/internal/purchases"
	"taller-backend/internal/sales"
	"taller-backend/internal/staff"
	"taller-backend/internal/statements"
	"taller-backend/internal/suppliers"
	"taller-backend/internal/validation"
	"taller-backend/internal/workorders"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

// ErrorHandler responde siempre {"error": ...}; los errores de validación agregan los campos.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  verr.Message,
			"fields": verr.Fields,
		})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
		})
	}

	logger.Get().WithFields(logrus.Fields{
		"method":     c.Method(),
		"path":       c.Path(),
		"request_id": c.Locals(middleware.CtxRequestIDKey),
	}).WithError(err).Error("Error inesperado")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Error inesperado del servidor",
	})
}

func New(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	origins := strings.Split(cfg.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(origins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + middleware.HeaderRequestID,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition, " + middleware.HeaderRequestID,
	}))
	if cfg.MetricsEnabled {
		app.Use(middleware.Metrics())
		app.Get("/metrics", middleware.MetricsHandler())
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth pública
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, 0)
	api.Post("/auth/register-super-admin", loginLimiter.Handler(), auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", loginLimiter.Handler(), auth.LoginHandler(cfg))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	protected.Get("/auth/me", auth.MeHandler())

	// Super admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))
	adminRoutes.Post("/organizations", admin.CreateOrganizationHandler())
	adminRoutes.Get("/organizations", admin.ListOrganizationsHandler())
	adminRoutes.Get("/organizations/:id", admin.GetOrganizationHandler())
	adminRoutes.Put("/organizations/:id", admin.UpdateOrganizationHandler())
	adminRoutes.Delete("/organizations/:id", admin.DeleteOrganizationHandler())
	adminRoutes.Post("/organizations/:id/admin", admin.CreateOrganizationAdminHandler())
	adminRoutes.Get("/organizations/:id/admins", admin.ListOrganizationAdminsHandler())

	orgAdmin := auth.RequireRole(models.RoleSuperAdmin, models.RoleOrgAdmin)

	// Configuración del taller
	protected.Get("/organization/settings", admin.GetSettingsHandler())
	protected.Put("/organization/settings", orgAdmin, admin.UpdateSettingsHandler())
	protected.Post("/organization/users", orgAdmin, admin.CreateOrganizationUserHandler())

	// Clientes y vehículos
	protected.Post("/customers", customers.CreateCustomerHandler())
	protected.Get("/customers", customers.ListCustomersHandler())
	protected.Get("/customers/:id", customers.GetCustomerHandler())
	protected.Put("/customers/:id", customers.UpdateCustomerHandler())
	protected.Delete("/customers/:id", customers.DeleteCustomerHandler())
	protected.Get("/customers/:id/statement", statements.CustomerStatementHandler())

	protected.Post("/vehicles", customers.CreateVehicleHandler())
	protected.Get("/vehicles", customers.ListVehiclesHandler())
	protected.Get("/vehicles/:id", customers.GetVehicleHandler())
	protected.Put("/vehicles/:id", customers.UpdateVehicleHandler())
	protected.Delete("/vehicles/:id", customers.DeleteVehicleHandler())

	// Proveedores y empleados
	protected.Post("/suppliers", suppliers.CreateSupplierHandler())
	protected.Get("/suppliers", suppliers.ListSuppliersHandler())
	protected.Get("/suppliers/:id", suppliers.GetSupplierHandler())
	protected.Put("/suppliers/:id", suppliers.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", suppliers.DeleteSupplierHandler())
	protected.Get("/suppliers/:id/statement", statements.SupplierStatementHandler())

	protected.Post("/employees", staff.CreateEmployeeHandler())
	protected.Get("/employees", staff.ListEmployeesHandler())
	protected.Get("/employees/:id", staff.GetEmployeeHandler())
	protected.Put("/employees/:id", staff.UpdateEmployeeHandler())
	protected.Delete("/employees/:id", staff.DeleteEmployeeHandler())

	// Catálogo
	protected.Post("/sale-products", catalog.CreateSaleProductHandler())
	protected.Post("/sale-products/import", catalog.ImportSaleProductsHandler())
	protected.Get("/sale-products", catalog.ListSaleProductsHandler())
	protected.Get("/sale-products/:id", catalog.GetSaleProductHandler())
	protected.Put("/sale-products/:id", catalog.UpdateSaleProductHandler())
	protected.Delete("/sale-products/:id", catalog.DeleteSaleProductHandler())

	protected.Post("/purchase-products", catalog.CreatePurchaseProductHandler())
	protected.Post("/purchase-products/import", catalog.ImportPurchaseProductsHandler())
	protected.Get("/purchase-products", catalog.ListPurchaseProductsHandler())
	protected.Get("/purchase-products/:id", catalog.GetPurchaseProductHandler())
	protected.Put("/purchase-products/:id", catalog.UpdatePurchaseProductHandler())
	protected.Delete("/purchase-products/:id", catalog.DeletePurchaseProductHandler())

	// Ventas y presupuestos
	protected.Get("/sales/next-number", sales.NextNumberHandler())
	protected.Post("/sales", sales.CreateSaleHandler())
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/:id", sales.GetSaleHandler())
	protected.Put("/sales/:id", sales.UpdateSaleHandler())
	protected.Delete("/sales/:id", sales.DeleteSaleHandler())
	protected.Post("/sales/:id/convert-to-invoice", sales.ConvertToInvoiceHandler())
	protected.Post("/sales/:id/approve", sales.ApproveQuoteHandler())
	protected.Post("/sales/:id/reject", sales.RejectQuoteHandler())

	// Compras
	protected.Post("/purchases", purchases.CreatePurchaseHandler())
	protected.Get("/purchases", purchases.ListPurchasesHandler())
	protected.Get("/purchases/:id", purchases.GetPurchaseHandler())
	protected.Put("/purchases/:id", purchases.UpdatePurchaseHandler())
	protected.Delete("/purchases/:id", purchases.DeletePurchaseHandler())

	// Cheques
	protected.Get("/checks", checks.ListChecksHandler())
	protected.Get("/checks/:id", checks.GetCheckHandler())
	protected.Put("/checks/:id/status", checks.UpdateCheckStatusHandler())

	// Cobros y pagos
	protected.Get("/collections/pending", collections.ListPendingHandler())
	protected.Post("/collections", collections.CreateCollectionHandler())
	protected.Get("/collections", collections.ListCollectionsHandler())
	protected.Put("/collections/:id", collections.UpdateCollectionHandler())
	protected.Delete("/collections/:id", collections.DeleteCollectionHandler())

	protected.Get("/payments/pending", payments.ListPendingHandler())
	protected.Post("/payments", payments.CreatePaymentHandler())
	protected.Get("/payments", payments.ListPaymentsHandler())
	protected.Put("/payments/:id", payments.UpdatePaymentHandler())
	protected.Delete("/payments/:id", payments.DeletePaymentHandler())

	// Órdenes de trabajo
	protected.Post("/work-orders", workorders.CreateWorkOrderHandler())
	protected.Get("/work-orders", workorders.ListWorkOrdersHandler())
	protected.Get("/work-orders/:id", workorders.GetWorkOrderHandler())
	protected.Put("/work-orders/:id", workorders.UpdateWorkOrderHandler())
	protected.Put("/work-orders/:id/status", workorders.UpdateWorkOrderStatusHandler())
	protected.Delete("/work-orders/:id", workorders.DeleteWorkOrderHandler())

	// Dashboard
	protected.Get("/dashboard/cash-chart", dashboard.CashChartHandler())
	protected.Get("/dashboard/summary", dashboard.SummaryHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", orgAdmin, audit.UndoAuditLogHandler())

	return app
}
