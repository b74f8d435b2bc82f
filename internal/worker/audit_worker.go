package worker

import (
	"github.com/spec-kit/transit-services/internal/events"
	"github.com/spec-kit/transit-services/internal/service"
)

// StartAuditWorker subscribes the audit log to the given event types.
func StartAuditWorker(audit *service.AuditService, types ...events.EventType) {
	if audit == nil || len(types) == 0 {
		return
	}
	audit.RegisterHandlers(types...)
}
