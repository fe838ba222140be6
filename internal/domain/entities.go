package domain

import "time"

// Article is a catalog item (a sellable or stockable product).
type Article struct {
	AuditedModel
	Code   string  `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name   string  `gorm:"size:255;not null" json:"name"`
	Unit   string  `gorm:"size:30" json:"unit"`
	Price  float64 `json:"price"`
	Active bool    `gorm:"default:true" json:"active"`
}

// DrugLot is a received lot of an article, tracked by lot number and expiry.
type DrugLot struct {
	AuditedModel
	ArticleID    string     `gorm:"type:uuid;index;not null" json:"article_id"`
	LotNumber    string     `gorm:"size:100;not null" json:"lot_number"`
	Quantity     int        `json:"quantity"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	ReceivedDate *time.Time `json:"received_date,omitempty"`
}

// ReturnReason is a configurable reason code for stock returns.
type ReturnReason struct {
	AuditedModel
	Code             string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Label            string `gorm:"size:255;not null" json:"label"`
	RequiresApproval bool   `gorm:"default:false" json:"requires_approval"`
}

// TmtMapping links a local article to a TMT (Thai Medicines Terminology)
// concept code.
type TmtMapping struct {
	AuditedModel
	ArticleID string `gorm:"type:uuid;index;not null" json:"article_id"`
	TmtCode   string `gorm:"size:50;index;not null" json:"tmt_code"`
	Level     string `gorm:"size:30" json:"level"`
}
