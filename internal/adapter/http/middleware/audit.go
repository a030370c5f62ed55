package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that records successful write
// operations. Routes are matched on their registered pattern.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if id, ok := UserID(c); ok {
			userID = &id
		}

		resourceID := c.Param("transactionId")
		if resourceType == "wallet" {
			resourceID = c.Param("walletId")
		}
		if resourceID == "" {
			resourceID = c.GetString(CtxResourceID)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"wallet_id": c.Param("walletId"),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

// CtxResourceID lets a handler report the id of a resource it created.
const CtxResourceID = "resource_id"

const (
	routeWallets      = "/api/v1/wallets"
	routeWallet       = "/api/v1/wallets/:walletId"
	routeTransactions = "/api/v1/wallets/:walletId/transactions"
	routeTransaction  = "/api/v1/wallets/:walletId/transactions/:transactionId"
)

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == routeWallets && method == http.MethodPost:
		return domain.AuditActionWalletCreate, "wallet"
	case route == routeWallet && method == http.MethodPatch:
		return domain.AuditActionWalletRename, "wallet"
	case route == routeWallet && method == http.MethodDelete:
		return domain.AuditActionWalletDelete, "wallet"
	case route == routeTransactions && method == http.MethodPost:
		return domain.AuditActionTransactionCreate, "transaction"
	case route == routeTransaction && method == http.MethodPatch:
		return domain.AuditActionTransactionUpdate, "transaction"
	case route == routeTransaction && method == http.MethodDelete:
		return domain.AuditActionTransactionDelete, "transaction"
	}
	return "", ""
}
