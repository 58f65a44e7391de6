// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP and websocket transports and the processing,
// storage and export packages.
//
// # DashboardService
//
// DashboardService owns the dataset cache and runs domain strategies:
//
//	svc := services.NewDashboardService(services.Dependencies{
//	    Processing: cfg.Processing,
//	    Paths:      paths,
//	    Runs:       runStore,
//	    Exporter:   exp,
//	    Logger:     logger,
//	})
//
//	info, err := svc.Ingest(ctx, "orders.csv", file)
//	res, err := svc.Process(ctx, services.ProcessRequest{
//	    DatasetID: info.ID,
//	    Domain:    "Sales",
//	    Options:   dataprocessing.Options{Period: "weekly"},
//	})
//
// Strategies always receive a copy of the cached dataset, so repeated runs
// against one upload never see each other's changes. Every run is recorded
// in the run store and announced on the event publisher when those are
// configured; failures of either are logged and never fail the run.
//
// # HealthService
//
// HealthService reports liveness, readiness and build information for the
// /healthz endpoint.
//
// # Error Handling
//
// Services return *errors.AppError values. Transports map them to RFC 7807
// responses through errors.ErrorHandler.
package services
