package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pagination response wrapper
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Request DTOs

type CreateClientRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Email       string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string     `json:"phone,omitempty" validate:"max=50"`
	TaxDocument string     `json:"taxDocument,omitempty" validate:"max=20"`
	BirthDate   *string    `json:"birthDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Sex         string     `json:"sex,omitempty" validate:"omitempty,oneof=M F"`
	StateCode   string     `json:"stateCode,omitempty" validate:"omitempty,len=2"`
	City        string     `json:"city,omitempty" validate:"max=100"`
	Address     string     `json:"address,omitempty" validate:"max=300"`
	PostalCode  string     `json:"postalCode,omitempty" validate:"max=16"`
	Role        ClientRole `json:"role,omitempty" validate:"omitempty,oneof=holder supplier"`
}

type UpdateClientRequest struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,max=200"`
	Email       *string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string     `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxDocument *string     `json:"taxDocument,omitempty" validate:"omitempty,max=20"`
	BirthDate   *string     `json:"birthDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Sex         *string     `json:"sex,omitempty" validate:"omitempty,oneof=M F"`
	StateCode   *string     `json:"stateCode,omitempty" validate:"omitempty,len=2"`
	City        *string     `json:"city,omitempty" validate:"omitempty,max=100"`
	Address     *string     `json:"address,omitempty" validate:"omitempty,max=300"`
	PostalCode  *string     `json:"postalCode,omitempty" validate:"omitempty,max=16"`
	Role        *ClientRole `json:"role,omitempty" validate:"omitempty,oneof=holder supplier"`
	IsActive    *bool       `json:"isActive,omitempty"`
}

type CreateProductRequest struct {
	Name           string           `json:"name" validate:"required,max=200"`
	Carrier        CarrierCode      `json:"carrier,omitempty" validate:"omitempty,oneof=none meridian"`
	ProductCode    string           `json:"productCode,omitempty" validate:"max=50"`
	PlanCode       string           `json:"planCode,omitempty" validate:"max=50"`
	BasePremium    *decimal.Decimal `json:"basePremium,omitempty"`
	CoverageMonths int              `json:"coverageMonths,omitempty" validate:"omitempty,gte=1,lte=120"`
}

type UpdateProductRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Carrier        *CarrierCode     `json:"carrier,omitempty" validate:"omitempty,oneof=none meridian"`
	ProductCode    *string          `json:"productCode,omitempty" validate:"omitempty,max=50"`
	PlanCode       *string          `json:"planCode,omitempty" validate:"omitempty,max=50"`
	BasePremium    *decimal.Decimal `json:"basePremium,omitempty"`
	CoverageMonths *int             `json:"coverageMonths,omitempty" validate:"omitempty,gte=1,lte=120"`
	IsActive       *bool            `json:"isActive,omitempty"`
}

type CreateContractRequest struct {
	ClientID  uuid.UUID        `json:"clientId" validate:"required"`
	ProductID uuid.UUID        `json:"productId" validate:"required"`
	Status    ContractStatus   `json:"status,omitempty" validate:"omitempty,oneof=draft pending"`
	Premium   *decimal.Decimal `json:"premium,omitempty"`
	StartDate *string          `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateContractRequest struct {
	Status    *ContractStatus  `json:"status,omitempty" validate:"omitempty,oneof=draft pending approved"`
	Premium   *decimal.Decimal `json:"premium,omitempty"`
	StartDate *string          `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string          `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	OwnerID   *string          `json:"ownerId,omitempty" validate:"omitempty,max=100"`
}

// IntegrationOutcome summarizes what the carrier integration did during a
// contract operation. Carrier failures never fail the HTTP request; they are
// reported here and on the event trail instead.
type IntegrationOutcome struct {
	Status       string `json:"status"` // success, error, skipped, not_required
	Reason       string `json:"reason,omitempty"`
	Message      string `json:"message,omitempty"`
	PolicyNumber string `json:"policyNumber,omitempty"`
}

// Integration outcome statuses
const (
	IntegrationSuccess     = "success"
	IntegrationError       = "error"
	IntegrationSkipped     = "skipped"
	IntegrationNotRequired = "not_required"
)

// Skip reasons recorded on skipped integration events
const (
	SkipReasonInsufficientClientData = "insufficient_client_data"
	SkipReasonHolderNotClient        = "holder_not_client"
	SkipReasonCarrierNotIntegrated   = "carrier_not_integrated"
	SkipReasonForced                 = "forced"
)

// ContractResponse is a contract together with the outcome of the carrier
// integration triggered by the request, if any.
type ContractResponse struct {
	Contract    *Contract           `json:"contract"`
	Integration *IntegrationOutcome `json:"integration,omitempty"`
}

// RecentEventRow is a denormalized event listing row for back-office views
type RecentEventRow struct {
	ID             uuid.UUID      `json:"id"`
	ContractID     uuid.UUID      `json:"contractId"`
	ContractToken  string         `json:"contractToken"`
	ContractNumber string         `json:"contractNumber,omitempty"`
	ClientName     string         `json:"clientName"`
	EventType      string         `json:"eventType"`
	StatusTag      EventStatusTag `json:"statusTag"`
	Description    string         `json:"description,omitempty"`
	CreatedAt      string         `json:"createdAt"` // ISO 8601
}
