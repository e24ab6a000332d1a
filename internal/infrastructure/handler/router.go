package handler

import (
	"github.com/damon-houk/currency-converter/internal/application/service"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/damon-houk/currency-converter/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// NewRouter wires every converter route behind the request-id, recovery and logging middleware
func NewRouter(svc *service.ConverterService, log logger.Logger) *mux.Router {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggingMiddleware(log))

	NewConverterHandler(svc, log).RegisterRoutes(router)
	NewHistoryHandler(svc, log).RegisterRoutes(router)

	return router
}
