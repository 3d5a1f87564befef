package handler

import (
	"errors"
	"net/http"
	"strconv"

	"console-service/internal/service"
	"console-service/pkg/logger"
	"console-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WorkspaceHandler serves the workspace hierarchy query endpoints
type WorkspaceHandler struct {
	accounts *service.AccountService
	tenants  *service.TenantService
}

// NewWorkspaceHandler creates the workspace handler
func NewWorkspaceHandler(accounts *service.AccountService, tenants *service.TenantService) *WorkspaceHandler {
	return &WorkspaceHandler{accounts: accounts, tenants: tenants}
}

// GetCurrent returns the caller's current workspace with their role in it
func (h *WorkspaceHandler) GetCurrent(c echo.Context) error {
	log := logger.FromContext(c)

	accountID, ok := c.Get("account_id").(uint)
	if !ok {
		log.Error("Failed to get account ID from context")
		prometheus.RecordAuthError("unauthorized_workspace_access")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	account, err := h.accounts.GetByID(accountID)
	if err != nil {
		log.Error("Account not found", zap.Uint("account_id", accountID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	}

	if account.CurrentTenantID == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no current workspace selected"})
	}

	info, err := h.tenants.GetTenantInfo(*account.CurrentTenantID, accountID)
	if err != nil {
		if errors.Is(err, service.ErrWorkspaceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "workspace not found"})
		}
		log.Error("Failed to load workspace", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, info)
}

// GetHierarchy returns the workspace subtree rooted at the given tenant
func (h *WorkspaceHandler) GetHierarchy(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid workspace ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workspace ID"})
	}

	node, err := h.tenants.GetHierarchy(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrWorkspaceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "workspace not found"})
		}
		log.Error("Failed to load workspace hierarchy", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, node)
}

// GetAllHierarchies returns every root workspace with its subtree
func (h *WorkspaceHandler) GetAllHierarchies(c echo.Context) error {
	log := logger.FromContext(c)

	nodes, err := h.tenants.GetAllHierarchies()
	if err != nil {
		log.Error("Failed to load workspace hierarchies", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"workspaces": nodes})
}
