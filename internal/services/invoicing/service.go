package invoicing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"invoice-billing-backend/internal/apperror"
	"invoice-billing-backend/internal/metrics"
	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/repository"
	"invoice-billing-backend/internal/services/documents"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MsgCreated        = "Call to insert and invoice creation was successful"
	MsgCreateFailed   = "Call to insert and invoice creation failed"
	MsgInsertFailed   = "Call to insert query failed"
	MsgDuplicate      = "Invoice already exists for supplied clientid and yearmonth"
	MsgStatusUpdated  = "Successfully updated invoice status"
	MsgStatusNotFound = "Supplied input does not exist. Failed to update invoice status"
	MsgStatusFailed   = "Failed to update invoice status"
	MsgListFailed     = "Failed to list invoices"
	MsgInvalidAmount  = "amount field is not a valid decimal"
)

type DuplicatePolicy string

const (
	// DuplicateOverwrite replaces an existing record with the same key.
	DuplicateOverwrite DuplicatePolicy = "overwrite"
	// DuplicateReject refuses to create over an existing record.
	DuplicateReject DuplicatePolicy = "reject"
)

type Store interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	Put(ctx context.Context, invoice *models.Invoice) error
	UpdateStatus(ctx context.Context, clientID, yearMonth, status string) error
	FindAll(ctx context.Context) ([]models.Invoice, error)
}

// Pipeline is the document side of invoice creation.
type Pipeline interface {
	Generate(ctx context.Context, req documents.Request) (*documents.Artifact, error)
}

// CreateInput holds raw request values, keyed by their API parameter names.
type CreateInput struct {
	ClientID  string
	YearMonth string
	Forename  string
	Surname   string
	Number    string
	Email     string
	Status    string
	Amount    string
}

type UpdateInput struct {
	ClientID  string
	YearMonth string
	UpdateTo  string
}

type InvoiceService struct {
	store    Store
	pipeline Pipeline
	policy   DuplicatePolicy
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewInvoiceService(store Store, pipeline Pipeline, policy DuplicatePolicy, m *metrics.Metrics, logger *zap.Logger) *InvoiceService {
	if policy == "" {
		policy = DuplicateOverwrite
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		store:    store,
		pipeline: pipeline,
		policy:   policy,
		metrics:  m,
		logger:   logger,
	}
}

// Create validates and stores the invoice, then renders and uploads its PDF before returning.
func (s *InvoiceService) Create(ctx context.Context, in CreateInput) (err error) {
	defer func() { s.metrics.InvoiceOperation("create", err) }()

	invoice, err := in.toInvoice()
	if err != nil {
		return err
	}
	logger := s.logger.With(
		zap.String("client_id", invoice.ClientID),
		zap.String("year_month", invoice.YearMonth))

	if err := s.persist(ctx, invoice); err != nil {
		logger.Error("invoice insert failed", zap.Error(err))
		return err
	}

	artifact, err := s.pipeline.Generate(ctx, documents.Request{
		HTML:      invoiceHTML(invoice),
		Forename:  invoice.Forename,
		Surname:   invoice.Surname,
		YearMonth: invoice.YearMonth,
	})
	if err != nil {
		logger.Error("invoice document generation failed", zap.Error(err))
		return apperror.New(apperror.CodeOf(err), MsgCreateFailed, err)
	}

	logger.Info("invoice created", zap.String("artifact", artifact.Key))
	return nil
}

func (s *InvoiceService) persist(ctx context.Context, invoice *models.Invoice) error {
	if s.policy == DuplicateReject {
		err := s.store.Create(ctx, invoice)
		if errors.Is(err, repository.ErrDuplicateInvoice) {
			return apperror.New(apperror.CodeConflict, MsgDuplicate, err)
		}
		if err != nil {
			return apperror.New(apperror.CodeOf(err), MsgInsertFailed, err)
		}
		return nil
	}

	if err := s.store.Put(ctx, invoice); err != nil {
		return apperror.New(apperror.CodeOf(err), MsgInsertFailed, err)
	}
	return nil
}

// UpdateStatus changes invoice_status of an existing invoice. It never creates one.
func (s *InvoiceService) UpdateStatus(ctx context.Context, in UpdateInput) (err error) {
	defer func() { s.metrics.InvoiceOperation("update_status", err) }()

	if err := requireFields(
		field{"clientid", in.ClientID},
		field{"yearmonth", in.YearMonth},
		field{"updateto", in.UpdateTo},
	); err != nil {
		return err
	}

	err = s.store.UpdateStatus(ctx, in.ClientID, in.YearMonth, in.UpdateTo)
	switch {
	case errors.Is(err, repository.ErrInvoiceNotFound):
		return apperror.New(apperror.CodeBadRequest, MsgStatusNotFound, err)
	case err != nil:
		s.logger.Error("invoice status update failed",
			zap.String("client_id", in.ClientID),
			zap.String("year_month", in.YearMonth),
			zap.Error(err))
		return apperror.New(apperror.CodeOf(err), MsgStatusFailed, err)
	}
	return nil
}

func (s *InvoiceService) List(ctx context.Context) (invoices []models.Invoice, err error) {
	defer func() { s.metrics.InvoiceOperation("list", err) }()

	invoices, err = s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error("invoice scan failed", zap.Error(err))
		return nil, apperror.New(apperror.CodeOf(err), MsgListFailed, err)
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	return invoices, nil
}

type field struct{ name, value string }

// requireFields reports the first empty field, in the order given.
func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperror.FieldNotSupplied(f.name)
		}
	}
	return nil
}

func (in CreateInput) toInvoice() (*models.Invoice, error) {
	if err := requireFields(
		field{"clientid", in.ClientID},
		field{"yearmonth", in.YearMonth},
		field{"forename", in.Forename},
		field{"surname", in.Surname},
		field{"number", in.Number},
		field{"email", in.Email},
		field{"status", in.Status},
		field{"amount", in.Amount},
	); err != nil {
		return nil, err
	}

	if err := documents.ValidateNameParts(in.Forename, in.Surname, in.YearMonth); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return nil, apperror.New(apperror.CodeBadRequest, MsgInvalidAmount, err)
	}

	return &models.Invoice{
		ClientID:      in.ClientID,
		YearMonth:     in.YearMonth,
		Forename:      in.Forename,
		Surname:       in.Surname,
		PhoneNumber:   in.Number,
		EmailAddress:  in.Email,
		InvoiceStatus: in.Status,
		Amount:        models.NewMoney(amount),
	}, nil
}

func invoiceHTML(inv *models.Invoice) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head></head>`+
		`<body><h3>Invoice</h3><br><h6>Bill to:</h6>`+
		`<h6>%s %s</h6>`+
		`<h6>Please pay %s</h6></body></html>`,
		html.EscapeString(inv.Forename), html.EscapeString(inv.Surname), inv.Amount.AsEntered())
}
