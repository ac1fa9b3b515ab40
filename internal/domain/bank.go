package domain

// BankInstructions is the snapshot of transfer details embedded in a bank
// order's metadata and mailed to the customer.
type BankInstructions struct {
	BankName      string  `json:"bankName"`
	AccountName   string  `json:"accountName"`
	AccountNumber string  `json:"accountNumber"`
	SwiftCode     string  `json:"swiftCode"`
	BankAddress   string  `json:"bankAddress,omitempty"`
	Reference     string  `json:"reference"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

func (b BankInstructions) ForOrder(orderID string, amount float64, currency string) BankInstructions {
	b.Reference = orderID
	b.Amount = amount
	b.Currency = currency
	return b
}

// AsMetadata flattens the snapshot for the JSON metadata column.
func (b BankInstructions) AsMetadata() map[string]interface{} {
	return map[string]interface{}{
		"bankName":      b.BankName,
		"accountName":   b.AccountName,
		"accountNumber": b.AccountNumber,
		"swiftCode":     b.SwiftCode,
		"bankAddress":   b.BankAddress,
		"reference":     b.Reference,
		"amount":        b.Amount,
		"currency":      b.Currency,
	}
}
