package handler

import (
	"context"

	"github.com/mariamm-maher/graduation-project-BE/internal/queue"
	audit_publisher "github.com/mariamm-maher/graduation-project-BE/internal/service"
)

// PublishAudit is the default audit sink: it hands the event to the
// broker on a detached goroutine and discards the result. The audit
// trail must never fail or delay a response.
func PublishAudit(ev queue.AuditEvent) {
	go func() {
		_ = audit_publisher.Publish(context.Background(), ev)
	}()
}
