// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers (ToDomain / FromDomain) convert between the two
// 4. Repositories only ever read and write persistence models
//
// Structure:
// - base.go: BaseModel, AggregateModel, TenantAggregateModel
// - catalog.go: products
// - inventory.go: stock_movements (append-only ledger)
// - partner.go: customers
// - trade.go: orders, order_items
// - finance.go: debts, debt_installments, cash_sessions
package models
