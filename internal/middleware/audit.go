package middleware

import (
	"encoding/json"
	"time"

	"clinicore/internal/common"
	"clinicore/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuditMiddleware records mutating requests against the clinic's audit trail.
type AuditMiddleware struct {
	auditSvc services.AuditLogsService
	logger   *zap.Logger
}

func NewAuditMiddleware(auditSvc services.AuditLogsService, logger *zap.Logger) *AuditMiddleware {
	return &AuditMiddleware{auditSvc: auditSvc, logger: logger}
}

// AuditRequest logs write operations (POST/PUT/PATCH/DELETE) after the
// handler has run. Reads are not audited.
func (m *AuditMiddleware) AuditRequest(entityType string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			method := c.Request().Method
			if method == "GET" || method == "HEAD" || method == "OPTIONS" {
				return err
			}

			ctx := c.Request().Context()
			clinicID, ok := common.GetClinicIDFromContext(ctx)
			if !ok {
				return err
			}

			userID, hasUser := common.GetUserIDFromContext(ctx)
			userPtr := &userID
			if !hasUser {
				userPtr = nil
			}

			details := map[string]any{
				"method":    method,
				"path":      c.Path(),
				"status":    c.Response().Status,
				"ip":        c.RealIP(),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			}
			if err != nil {
				details["error"] = err.Error()
			}
			raw, _ := json.Marshal(details)
			detailStr := string(raw)

			action := method + " " + c.Path()
			if logErr := m.auditSvc.LogActivity(ctx, clinicID, userPtr, action, entityType, nil, &detailStr); logErr != nil {
				m.logger.Warn("audit log write failed",
					zap.String("action", action),
					zap.Error(logErr))
			}

			return err
		}
	}
}
