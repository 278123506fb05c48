// Package logging wraps zap for projectindex.
//
// Every method takes the request context. The request ID set by the HTTP
// layer and the project name set by the update service are added to each
// entry as request.id and project.name, along with the trace and span IDs
// of the active span.
//
//	cfg, err := logging.FromSettings(appCfg.Logging)
//	logger, err := logging.NewLogger(cfg, global.GetLoggerProvider())
//	defer logger.Sync()
//
//	ctx = logging.WithProject(ctx, "api-gateway")
//	logger.Info(ctx, "field updated", zap.String("version", sha))
//
// Stdout output passes through a redacting encoder that masks sensitive
// field names and values shaped like bearer headers or GitHub tokens.
// Entries below error level are sampled; errors never are.
//
// Tests use NewTestLogger and its Assert helpers.
package logging
