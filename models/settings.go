package models

type OpeningHours struct {
	Day    string `json:"day"`
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed"`
}

type ShopSettings struct {
	ShopName     string         `json:"shopName"`
	OpeningHours []OpeningHours `json:"openingHours"`
	ContactPhone string         `json:"contactPhone,omitempty"`
}

type PaymentSettings struct {
	EnableCash       bool   `json:"enableCash"`
	EnableEWallet    bool   `json:"enableEWallet"`
	EnableMomo       bool   `json:"enableMomo"`
	EWalletName      string `json:"eWalletName,omitempty"`
	MomoNumber       string `json:"momoNumber,omitempty"`
	CashInstructions string `json:"cashInstructions,omitempty"`
}

type PickupSettings struct {
	PrepTimeMinutes    int    `json:"prepTimeMinutes"`
	PickupInstructions string `json:"pickupInstructions,omitempty"`
}

// Settings groups the three singleton settings documents.
type Settings struct {
	Shop    ShopSettings    `json:"settings"`
	Payment PaymentSettings `json:"paymentSettings"`
	Pickup  PickupSettings  `json:"pickupSettings"`
}

// DefaultSettings mirrors the schema's initial values.
func DefaultSettings() Settings {
	return Settings{
		Payment: PaymentSettings{EnableCash: true, EnableEWallet: true, EnableMomo: true},
		Pickup:  PickupSettings{PrepTimeMinutes: 20},
	}
}

// AdminUser is a dashboard login. Salt is set only for legacy PBKDF2 hashes.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	Salt         string
}
