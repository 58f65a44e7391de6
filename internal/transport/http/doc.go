// Package http implements the HTTP handlers of the dashboard service. Handlers
// stay thin and delegate all processing to the service layer.
//
// # Routes
//
//	GET  /api/v1/domains
//	POST /api/v1/datasets                      multipart upload, field "file"
//	POST /api/v1/datasets/sheets               {"spreadsheet_id", "range"}
//	GET  /api/v1/datasets/{id}
//	GET  /api/v1/datasets/{id}/countries
//	POST /api/v1/process                       {"dataset_id", "domain", "options"}
//	POST /api/v1/reports                       {"dataset_id", "domain", "options", "format"}
//	GET  /api/v1/runs?limit=N&domain=D
//	GET  /api/v1/version
//	POST /api/v1/client-logs
//	GET  /healthz
//	GET  /healthz/live
//	GET  /metrics
//	GET  /ws/session                           websocket, see package websocket
//	GET  /*                                    static web client
//
// # Errors
//
// Every handler reports failures through errors.ErrorHandler, which maps
// domain errors to status codes:
//
//	parse and schema errors       422
//	column selection, validation  400
//	unknown dataset               404
//	disabled feature              503
//
// # Testing
//
// Handlers depend on DashboardServiceInterface so tests can substitute a
// testify mock:
//
//	svc := new(mockDashboardService)
//	svc.On("Domains").Return([]dataprocessing.Domain{"HR"})
//	h := NewDashboardHandler(svc, 1<<20, logger, errorHandler)
package http
