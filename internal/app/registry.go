package app

import (
	"database/sql"

	"github.com/janajenn/capstone2-sub006/internal/approval"
	"github.com/janajenn/capstone2-sub006/internal/conversion"
	"github.com/janajenn/capstone2-sub006/internal/delegation"
	"github.com/janajenn/capstone2-sub006/internal/employee"
	"github.com/janajenn/capstone2-sub006/internal/ledger"
	"github.com/janajenn/capstone2-sub006/internal/messaging/kafka"
	"github.com/janajenn/capstone2-sub006/internal/middleware"
	"github.com/janajenn/capstone2-sub006/internal/rbac"
	"github.com/janajenn/capstone2-sub006/internal/recall"
	"github.com/janajenn/capstone2-sub006/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Modules is the assembled service graph. The worker binary reaches into
// it for the ledger service and outbox repo; the api binary mounts the
// handlers.
type Modules struct {
	RBACService rbac.Service

	EmployeeService employee.Service
	EmployeeRepo    employee.Repository

	LedgerService ledger.Service

	DelegationService delegation.Service
	ApprovalService   approval.Service
	RecallService     recall.Service
	ConversionService conversion.Service

	OutboxRepo kafka.OutboxRepository

	employeeHandler   *employee.Handler
	ledgerHandler     *ledger.Handler
	delegationHandler *delegation.Handler
	approvalHandler   *approval.Handler
	recallHandler     *recall.Handler
	conversionHandler *conversion.Handler
}

// buildModules wires repositories and services bottom-up: directory and
// ledger first, then the workflows that sit on top of them.
func buildModules(gormDB *gorm.DB, sqlDB *sql.DB) (*Modules, error) {
	rbacService, err := rbac.NewService()
	if err != nil {
		return nil, err
	}

	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	employeeRepo := employee.NewRepository(gormDB)
	employeeService := employee.NewService(sqlDB, employeeRepo, counterRepo)

	ledgerRepo := ledger.NewRepository(sqlDB)
	ledgerService := ledger.NewService(sqlDB, ledgerRepo, employeeRepo)

	delegationRepo := delegation.NewRepository(gormDB)
	delegationService := delegation.NewService(sqlDB, delegationRepo, employeeRepo)

	approvalRepo := approval.NewRepository(gormDB)
	approvalService := approval.NewService(
		sqlDB, approvalRepo, employeeRepo, ledgerService, delegationService, outboxRepo,
	)

	recallRepo := recall.NewRepository(gormDB)
	recallService := recall.NewService(
		sqlDB, recallRepo, approvalRepo, ledgerService, delegationService, outboxRepo,
	)

	conversionRepo := conversion.NewRepository(gormDB)
	conversionService := conversion.NewService(
		sqlDB, conversionRepo, employeeRepo, ledgerService, delegationService, outboxRepo,
	)

	return &Modules{
		RBACService:       rbacService,
		EmployeeService:   employeeService,
		EmployeeRepo:      employeeRepo,
		LedgerService:     ledgerService,
		DelegationService: delegationService,
		ApprovalService:   approvalService,
		RecallService:     recallService,
		ConversionService: conversionService,
		OutboxRepo:        outboxRepo,

		employeeHandler:   employee.NewHandler(employeeService),
		ledgerHandler:     ledger.NewHandler(ledgerService),
		delegationHandler: delegation.NewHandler(delegationService),
		approvalHandler:   approval.NewHandler(approvalService),
		recallHandler:     recall.NewHandler(recallService),
		conversionHandler: conversion.NewHandler(conversionService),
	}, nil
}

// buildRouter mounts middleware and every module's routes under /api/v1.
func buildRouter(a *App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	m := a.Modules
	v1 := router.Group("/api/v1")

	employee.RegisterRoutes(v1, m.employeeHandler, m.RBACService)
	ledger.RegisterRoutes(v1, m.ledgerHandler, m.RBACService)
	delegation.RegisterRoutes(v1, m.delegationHandler, m.RBACService)
	approval.RegisterRoutes(v1, m.approvalHandler, m.RBACService, a.Redis)
	recall.RegisterRoutes(v1, m.recallHandler, m.RBACService, a.Redis)
	conversion.RegisterRoutes(v1, m.conversionHandler, m.RBACService, a.Redis)

	return router
}
