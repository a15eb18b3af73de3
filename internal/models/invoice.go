package models

import (
	"time"
)

type Invoice struct {
	ClientID      string    `gorm:"primaryKey;column:client_id" json:"client_id"`
	YearMonth     string    `gorm:"primaryKey;column:year_month" json:"year_month"`
	Forename      string    `json:"forename"`
	Surname       string    `json:"surname"`
	PhoneNumber   string    `json:"phone_number"`
	EmailAddress  string    `json:"email_address"`
	InvoiceStatus string    `gorm:"index" json:"invoice_status"`
	Amount        Money     `json:"amount"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

func (Invoice) TableName() string {
	return "invoice_details"
}
