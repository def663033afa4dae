package routekit

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

var slogLevels = map[slog.Level]slog.Level{
	slog.LevelDebug: slog.LevelDebug,
	slog.LevelInfo:  slog.LevelInfo,
	slog.LevelWarn:  slog.LevelWarn,
	slog.LevelError: slog.LevelError,
}

// NewSlogLogger adapts a slog.Logger for WithLogger. A nil logger uses
// slog.Default().
//
//	d := routekit.New(client, routekit.WithLogger(routekit.NewSlogLogger(slog.Default())))
func NewSlogLogger(log *slog.Logger) watermill.LoggerAdapter {
	if log == nil {
		log = slog.Default()
	}
	return watermill.NewSlogLoggerWithLevelMapping(log, slogLevels)
}
