package services

import (
	"io"

	"gastos/internal/csvimport"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/query"
)

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(name string, isFixed bool) (*models.Category, error)
	ListCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(categoryID uint) (*models.Category, error)
	UpdateCategory(categoryID uint, name *string, isFixed *bool) (*models.Category, error)
	DeleteCategory(categoryID uint) error
}

// PaymentMethodServicer defines the contract for payment method business logic.
type PaymentMethodServicer interface {
	CreatePaymentMethod(name string) (*models.PaymentMethod, error)
	ListPaymentMethods(page pagination.PageRequest) (*pagination.PageResponse[models.PaymentMethod], error)
	GetPaymentMethodByID(id uint) (*models.PaymentMethod, error)
	UpdatePaymentMethod(id uint, name string) (*models.PaymentMethod, error)
	DeletePaymentMethod(id uint) error
}

// MovementTypeServicer defines the contract for movement type business logic.
type MovementTypeServicer interface {
	CreateMovementType(name string) (*models.MovementType, error)
	ListMovementTypes(page pagination.PageRequest) (*pagination.PageResponse[models.MovementType], error)
	GetMovementTypeByID(id uint) (*models.MovementType, error)
	UpdateMovementType(id uint, name string) (*models.MovementType, error)
	DeleteMovementType(id uint) error
}

// RuleServicer defines the contract for auto-categorization rules.
type RuleServicer interface {
	CreateRule(input RuleInput) (*models.Rule, error)
	ListRules(categoryID *uint, page pagination.PageRequest) (*pagination.PageResponse[models.Rule], error)
	GetRuleByID(ruleID uint) (*models.Rule, error)
	UpdateRule(ruleID uint, input RuleInput) (*models.Rule, error)
	DeleteRule(ruleID uint) error
	ReapplyRules() (int, error)
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(input TransactionInput) (*models.Transaction, error)
	GetTransactionByID(transactionID uint) (*models.Transaction, error)
	UpdateTransaction(transactionID uint, input TransactionInput) (*models.Transaction, error)
	InlineUpdateTransaction(transactionID uint, update InlineUpdate) (*models.Transaction, error)
	DeleteTransaction(transactionID uint) error
	ListTransactions(filter query.MovementFilter, sort query.Sort, page pagination.PageRequest) (*TransactionList, error)
	ExportTransactions(filter query.MovementFilter, w io.Writer) (int, error)
}

// ImportServicer defines the contract for the CSV import pipeline.
type ImportServicer interface {
	Analyze(raw []byte) (*csvimport.Analysis, error)
	Preview(raw []byte, req ImportRequest) (*PreviewResult, error)
	Apply(raw []byte, req ImportRequest) (*ImportResult, error)
	RevertBatch(batchID string) (int64, error)
}

// DashboardServicer defines the contract for dashboard analytics.
type DashboardServicer interface {
	GetSummary(filter query.MovementFilter) (*DashboardSummary, error)
	GetMonthlySeries(filter query.MovementFilter) ([]MonthlyPoint, error)
	GetByCategory(filter query.MovementFilter) ([]CategoryPoint, error)
	GetYearlySeries(filter query.MovementFilter) ([]YearPoint, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType string, resourceID uint, ipAddress string, changes map[string]any)
}
