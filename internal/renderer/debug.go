package renderer

import (
	"context"
	"fmt"

	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"golang.org/x/exp/slog"
)

// DebugCallbackInstallError is returned when the validation message
// callback cannot be registered.
type DebugCallbackInstallError struct {
	Cause error
}

func (e *DebugCallbackInstallError) Error() string {
	return fmt.Sprintf("install debug callback: %v", e.Cause)
}

func (e *DebugCallbackInstallError) Unwrap() error { return e.Cause }

func severityLevel(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) slog.Level {
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		return slog.LevelError
	case severity&ext_debug_utils.SeverityWarning != 0:
		return slog.LevelWarn
	case severity&ext_debug_utils.SeverityInfo != 0:
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

func messengerInfo(logger *slog.Logger) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			logger.Log(context.Background(), severityLevel(severity), data.Message,
				slog.Any("type", msgType))
			return false
		},
	}
}
