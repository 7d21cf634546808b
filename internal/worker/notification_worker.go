package worker

import (
	"github.com/spec-kit/solicitudes-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to request
// events.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
