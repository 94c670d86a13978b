package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields. IDs and timestamps are assigned by gorm;
// the postgres-side defaults live in the goose migrations.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when the database default is not available
// (sqlite in tests has no gen_random_uuid).
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ContractStatus represents the lifecycle status of a contract
type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusPending   ContractStatus = "pending"
	ContractStatusApproved  ContractStatus = "approved"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// IsValid checks if the ContractStatus is a valid enum value
func (cs ContractStatus) IsValid() bool {
	switch cs {
	case ContractStatusDraft, ContractStatusPending, ContractStatusApproved, ContractStatusCancelled:
		return true
	}
	return false
}

// contractTransitions lists the allowed status transitions. Cancelled is
// terminal and is only reachable from approved.
var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:     {ContractStatusPending, ContractStatusApproved},
	ContractStatusPending:   {ContractStatusApproved},
	ContractStatusApproved:  {ContractStatusCancelled},
	ContractStatusCancelled: {},
}

// CanTransition reports whether a contract may move from one status to another.
func CanTransition(from, to ContractStatus) bool {
	for _, allowed := range contractTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ClientRole distinguishes policy holders from supplier accounts. Supplier
// accounts exist for billing reconciliation and must never be insured.
type ClientRole string

const (
	ClientRoleHolder   ClientRole = "holder"
	ClientRoleSupplier ClientRole = "supplier"
)

// IsValid checks if the ClientRole is a valid enum value
func (cr ClientRole) IsValid() bool {
	return cr == ClientRoleHolder || cr == ClientRoleSupplier
}

// CarrierCode identifies the insurance carrier a product integrates with
type CarrierCode string

const (
	// CarrierNone marks products sold without carrier integration
	CarrierNone CarrierCode = "none"
	// CarrierMeridian is the carrier reached over the XML gateway
	CarrierMeridian CarrierCode = "meridian"
)

// IsIntegrated reports whether contracts on this carrier go through the
// policy gateway.
func (cc CarrierCode) IsIntegrated() bool {
	return cc == CarrierMeridian
}

// Client represents a person or organization in the registry
type Client struct {
	BaseModel
	Name        string     `gorm:"type:varchar(200);not null" json:"name"`
	Email       string     `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone       string     `gorm:"type:varchar(50)" json:"phone,omitempty"`
	TaxDocument string     `gorm:"type:varchar(20);column:tax_document;index" json:"taxDocument,omitempty"`
	BirthDate   *time.Time `gorm:"column:birth_date" json:"birthDate,omitempty"`
	Sex         string     `gorm:"type:varchar(1)" json:"sex,omitempty"`
	StateCode   string     `gorm:"type:varchar(2);column:state_code" json:"stateCode,omitempty"`
	City        string     `gorm:"type:varchar(100)" json:"city,omitempty"`
	Address     string     `gorm:"type:varchar(300)" json:"address,omitempty"`
	PostalCode  string     `gorm:"type:varchar(16);column:postal_code" json:"postalCode,omitempty"`
	Role        ClientRole `gorm:"type:varchar(20);not null;default:'holder'" json:"role"`
	IsActive    bool       `gorm:"not null;default:true;column:is_active" json:"isActive"`
}

// Product represents a sellable insurance product
type Product struct {
	BaseModel
	Name           string          `gorm:"type:varchar(200);not null" json:"name"`
	Carrier        CarrierCode     `gorm:"type:varchar(50);not null;default:'none'" json:"carrier"`
	ProductCode    string          `gorm:"type:varchar(50);column:product_code" json:"productCode,omitempty"`
	PlanCode       string          `gorm:"type:varchar(50);column:plan_code" json:"planCode,omitempty"`
	BasePremium    decimal.Decimal `gorm:"type:decimal(15,2);column:base_premium" json:"basePremium"`
	CoverageMonths int             `gorm:"not null;default:12;column:coverage_months" json:"coverageMonths"`
	IsActive       bool            `gorm:"not null;default:true;column:is_active" json:"isActive"`
}

// MetadataMap is a JSON object column attached to contracts. It carries
// integration state such as the last carrier response and the approval
// snapshot.
type MetadataMap map[string]any

// Value implements driver.Valuer
func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *MetadataMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", value)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// GormDataType tells gorm which column type to use
func (MetadataMap) GormDataType() string {
	return "jsonb"
}

// Metadata keys written by the contract service
const (
	MetaKeyApprovalSnapshot     = "approval_snapshot"
	MetaKeyLastCarrierResponse  = "last_carrier_response"
	MetaKeyCancellationResponse = "cancellation_response"
	MetaKeyCoverageExpiredAt    = "coverage_expired_at"
)

// ApprovalSnapshot is the carrier data captured when a contract is approved.
// The operation number is required later to cancel the policy.
type ApprovalSnapshot struct {
	PolicyNumber      string    `json:"policy_number,omitempty"`
	CertificateNumber string    `json:"certificate_number,omitempty"`
	OperationNumber   string    `json:"operation_number,omitempty"`
	SalesChannel      string    `json:"sales_channel,omitempty"`
	InvoicePeriod     string    `json:"invoice_period,omitempty"`
	ApprovedAt        time.Time `json:"approved_at"`
}

// Contract represents an insurance contract between a client and a product
type Contract struct {
	BaseModel
	Token             string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	ClientID          uuid.UUID       `gorm:"type:uuid;not null;index;column:client_id" json:"clientId"`
	Client            *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index;column:product_id" json:"productId"`
	Product           *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Status            ContractStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ContractNumber    string          `gorm:"type:varchar(50);column:contract_number" json:"contractNumber,omitempty"`
	CertificateNumber string          `gorm:"type:varchar(50);column:certificate_number" json:"certificateNumber,omitempty"`
	Premium           decimal.Decimal `gorm:"type:decimal(15,2)" json:"premium"`
	StartDate         time.Time       `gorm:"not null;column:start_date" json:"startDate"`
	EndDate           time.Time       `gorm:"not null;column:end_date;index" json:"endDate"`
	OwnerID           string          `gorm:"type:varchar(100);column:owner_id" json:"ownerId,omitempty"`
	Metadata          MetadataMap     `gorm:"type:jsonb" json:"metadata,omitempty"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// SetApprovalSnapshot stores the carrier approval data in the metadata map
func (c *Contract) SetApprovalSnapshot(s ApprovalSnapshot) {
	if c.Metadata == nil {
		c.Metadata = MetadataMap{}
	}
	c.Metadata[MetaKeyApprovalSnapshot] = map[string]any{
		"policy_number":      s.PolicyNumber,
		"certificate_number": s.CertificateNumber,
		"operation_number":   s.OperationNumber,
		"sales_channel":      s.SalesChannel,
		"invoice_period":     s.InvoicePeriod,
		"approved_at":        s.ApprovedAt.Format(time.RFC3339),
	}
}

// GetApprovalSnapshot reads the carrier approval data back out of the
// metadata map. Returns false when the contract was never approved through
// the carrier.
func (c *Contract) GetApprovalSnapshot() (ApprovalSnapshot, bool) {
	raw, ok := c.Metadata[MetaKeyApprovalSnapshot]
	if !ok {
		return ApprovalSnapshot{}, false
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return ApprovalSnapshot{}, false
	}
	str := func(key string) string {
		if v, ok := obj[key].(string); ok {
			return v
		}
		return ""
	}
	snap := ApprovalSnapshot{
		PolicyNumber:      str("policy_number"),
		CertificateNumber: str("certificate_number"),
		OperationNumber:   str("operation_number"),
		SalesChannel:      str("sales_channel"),
		InvoicePeriod:     str("invoice_period"),
	}
	if at, err := time.Parse(time.RFC3339, str("approved_at")); err == nil {
		snap.ApprovedAt = at
	}
	return snap, true
}

// EventStatusTag classifies the outcome recorded on a contract event
type EventStatusTag string

const (
	EventStatusSuccess EventStatusTag = "success"
	EventStatusError   EventStatusTag = "error"
	EventStatusSkipped EventStatusTag = "skipped"
)

// IsValid checks if the EventStatusTag is a valid enum value
func (t EventStatusTag) IsValid() bool {
	switch t {
	case EventStatusSuccess, EventStatusError, EventStatusSkipped:
		return true
	}
	return false
}

// Event types recorded on the contract trail
const (
	EventTypeStatusChange      = "status_change"
	EventTypeContractCreated   = "contract_created"
	EventTypeIssueIntegration  = "carrier_issue"
	EventTypeCancelIntegration = "carrier_cancel"
	EventTypeLoyalty           = "loyalty"
	EventTypeCoverageExpired   = "coverage_expired"
	EventTypeContractTrashed   = "contract_trashed"
	EventTypeContractRestored  = "contract_restored"
	EventTypeContractDeleted   = "contract_deleted"
)

// ContractEvent is an append-only record of something that happened to a
// contract. Events are never updated or deleted, even when the contract
// itself is force deleted.
type ContractEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ContractID  uuid.UUID      `gorm:"type:uuid;not null;index;column:contract_id" json:"contractId"`
	Contract    *Contract      `gorm:"foreignKey:ContractID" json:"-"`
	EventType   string         `gorm:"type:varchar(50);not null;index;column:event_type" json:"eventType"`
	StatusTag   EventStatusTag `gorm:"type:varchar(20);not null;column:status_tag" json:"statusTag"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Metadata    string         `gorm:"type:jsonb" json:"metadata,omitempty"`
	RawPayload  string         `gorm:"type:text;column:raw_payload" json:"rawPayload,omitempty"`
	ActorID     *string        `gorm:"type:varchar(100);column:actor_id" json:"actorId,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"createdAt"`
}

// BeforeCreate assigns an ID when the database default is not available
func (e *ContractEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
