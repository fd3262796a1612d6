package service

import (
	"tillpos-backend/internal/receipt"
)

// Documents renders receipts and shift reports and sends them to the printer.
type Documents struct {
	Printer      receipt.Printer
	Template     receipt.Template
	StoreName    string
	StoreAddress string
}

// store falls back to the configured store identity for blank values.
func (d Documents) store(name, address string) (string, string) {
	if name == "" {
		name = d.StoreName
	}
	if address == "" {
		address = d.StoreAddress
	}
	return name, address
}
