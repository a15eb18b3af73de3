package repository

import (
	"context"
	"errors"

	"invoice-billing-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrDuplicateInvoice = errors.New("invoice already exists")
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts the invoice and refuses to touch an existing (client_id, year_month) row.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(invoice)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateInvoice
	}
	return nil
}

// Put writes the invoice, replacing every attribute of an existing row with the same key.
func (r *InvoiceRepository) Put(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "client_id"}, {Name: "year_month"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"forename", "surname", "phone_number", "email_address",
				"invoice_status", "amount", "updated_at",
			}),
		}).
		Create(invoice).Error
}

// UpdateStatus overwrites invoice_status in one statement, only if the key already exists.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, clientID, yearMonth, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("client_id = ? AND year_month = ?", clientID, yearMonth).
		Update("invoice_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// FindAll returns every invoice. The table is expected to stay small enough for a full scan.
func (r *InvoiceRepository) FindAll(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Order("client_id ASC, year_month ASC").
		Find(&invoices).Error
	return invoices, err
}
