package server_test

import (
	"fmt"
	"testing"

	"taller-backend/internal/models"
	"taller-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginOut struct {
	Token string `json:"token"`
	User  struct {
		ID   uint            `json:"id"`
		Role models.UserRole `json:"role"`
	} `json:"user"`
}

func TestSuperAdminOnboarding(t *testing.T) {
	e := newEnv(t)
	anon := *e
	anon.token = ""

	anon.mustDo("POST", "/api/auth/register-super-admin", fiber.Map{
		"name": "Root", "email": "Root@Taller.com", "password": "supersecreta",
	}, fiber.StatusCreated, nil)
	assert.Equal(t, fiber.StatusForbidden, anon.do("POST", "/api/auth/register-super-admin", fiber.Map{
		"name": "Otro", "email": "otro@taller.com", "password": "supersecreta",
	}, nil))

	assert.Equal(t, fiber.StatusUnauthorized, anon.do("POST", "/api/auth/login", fiber.Map{
		"email": "root@taller.com", "password": "incorrecta",
	}, nil))

	var login loginOut
	anon.mustDo("POST", "/api/auth/login", fiber.Map{
		"email": "root@taller.com", "password": "supersecreta",
	}, fiber.StatusOK, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, models.RoleSuperAdmin, login.User.Role)

	root := anon
	root.token = login.Token

	var org struct {
		ID uint `json:"id"`
	}
	root.mustDo("POST", "/api/admin/organizations", fiber.Map{
		"name": "Taller Sur", "work_price_hour": 12000,
	}, fiber.StatusCreated, &org)

	var adminUser struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	root.mustDo("POST", fmt.Sprintf("/api/admin/organizations/%d/admin", org.ID), fiber.Map{
		"name": "Encargada", "email": "encargada@sur.com", "password": "clave-segura",
	}, fiber.StatusCreated, &adminUser)
	assert.Equal(t, "clave-segura", adminUser.Password)

	var orgLogin loginOut
	anon.mustDo("POST", "/api/auth/login", fiber.Map{
		"email": "encargada@sur.com", "password": "clave-segura",
	}, fiber.StatusOK, &orgLogin)
	assert.Equal(t, models.RoleOrgAdmin, orgLogin.User.Role)

	var me struct {
		Email        string `json:"email"`
		Organization *struct {
			Name string `json:"name"`
		} `json:"organization"`
	}
	orgAdmin := anon
	orgAdmin.token = orgLogin.Token
	orgAdmin.mustDo("GET", "/api/auth/me", nil, fiber.StatusOK, &me)
	require.NotNil(t, me.Organization)
	assert.Equal(t, "Taller Sur", me.Organization.Name)

	// El super admin opera sobre un taller indicándolo explícitamente.
	assert.Equal(t, fiber.StatusBadRequest, root.do("POST", "/api/customers", fiber.Map{"name": "X"}, nil))
	root.mustDo("POST", "/api/customers", fiber.Map{"name": "X", "organization_id": org.ID}, fiber.StatusCreated, nil)
}

func TestRolesAndTokens(t *testing.T) {
	e := newEnv(t)
	clerk := e.as(testutil.CreateUser(t, e.db, "mostrador@central.com", models.RoleOrgUser, &e.org.ID))

	assert.Equal(t, fiber.StatusForbidden, clerk.do("GET", "/api/admin/organizations", nil, nil))
	assert.Equal(t, fiber.StatusForbidden, clerk.do("PUT", "/api/organization/settings", fiber.Map{"name": "Nuevo"}, nil))
	assert.Equal(t, fiber.StatusForbidden, clerk.do("POST", "/api/audit-logs/1/undo", nil, nil))
	clerk.mustDo("GET", "/api/customers", nil, fiber.StatusOK, nil)

	bad := *e
	bad.token = "no-es-un-jwt"
	assert.Equal(t, fiber.StatusUnauthorized, bad.do("GET", "/api/customers", nil, nil))

	orphan := e.as(testutil.CreateUser(t, e.db, "huerfano@central.com", models.RoleOrgUser, nil))
	assert.Equal(t, fiber.StatusForbidden, orphan.do("GET", "/api/customers", nil, nil))
}
