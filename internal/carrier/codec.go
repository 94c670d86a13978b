package carrier

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Operation names understood by the carrier gateway
const (
	opIssuePolicy  = "issuePolicy"
	opCancelPolicy = "cancelPolicy"
)

const dateLayout = "2006-01-02"

// The carrier speaks a two-layer XML dialect: an outer envelope with
// authentication and an operation node, whose parameters are a complete
// inner XML document embedded as CDATA. Responses mirror the shape; the
// result of the operation is again an inner document inside CDATA.

type requestEnvelope struct {
	XMLName   xml.Name          `xml:"request"`
	Auth      envelopeAuth      `xml:"authentication"`
	Operation envelopeOperation `xml:"operation"`
}

type envelopeAuth struct {
	Username string `xml:"username"`
	Password string `xml:"password"`
}

type envelopeOperation struct {
	Name       string     `xml:"name,attr"`
	Parameters cdataField `xml:"parameters"`
}

type cdataField struct {
	Text string `xml:",cdata"`
}

type responseEnvelope struct {
	XMLName    xml.Name            `xml:"response"`
	Operations []responseOperation `xml:"operation"`
}

type responseOperation struct {
	Name   string     `xml:"name,attr"`
	Result cdataField `xml:"result"`
}

// Inner documents

type issueRequest struct {
	XMLName            xml.Name      `xml:"issueRequest"`
	ProductCode        string        `xml:"productCode"`
	PlanCode           string        `xml:"planCode"`
	SalesChannel       string        `xml:"salesChannel"`
	PartnerOperationID string        `xml:"partnerOperationId"`
	Premium            string        `xml:"premium"`
	Insured            issueInsured  `xml:"insured"`
	Coverage           issueCoverage `xml:"coverage"`
}

type issueInsured struct {
	Name        string `xml:"name"`
	TaxDocument string `xml:"document"`
	BirthDate   string `xml:"birthDate"`
	Sex         string `xml:"sex,omitempty"`
	StateCode   string `xml:"stateCode,omitempty"`
}

type issueCoverage struct {
	StartDate string `xml:"startDate"`
	EndDate   string `xml:"endDate"`
}

type issueResult struct {
	XMLName           xml.Name `xml:"issueResult"`
	ReturnCode        string   `xml:"returnCode"`
	ReturnMessage     string   `xml:"returnMessage"`
	PolicyNumber      string   `xml:"policyNumber"`
	CertificateNumber string   `xml:"certificateNumber"`
	OperationNumber   string   `xml:"operationNumber"`
}

type cancelRequest struct {
	XMLName         xml.Name `xml:"cancelRequest"`
	OperationNumber string   `xml:"operationNumber"`
	SalesChannel    string   `xml:"salesChannel"`
	InvoicePeriod   string   `xml:"invoicePeriod"`
}

type cancelResult struct {
	XMLName       xml.Name `xml:"cancelResult"`
	ReturnCode    string   `xml:"returnCode"`
	ReturnMessage string   `xml:"returnMessage"`
}

// IssueParams carries everything needed to issue a policy
type IssueParams struct {
	ProductCode        string
	PlanCode           string
	SalesChannel       string
	PartnerOperationID string
	Premium            decimal.Decimal
	InsuredName        string
	TaxDocument        string
	BirthDate          time.Time
	Sex                string
	StateCode          string
	StartDate          time.Time
	EndDate            time.Time
}

// CancelParams carries everything needed to cancel an issued policy
type CancelParams struct {
	OperationNumber string
	SalesChannel    string
	InvoicePeriod   string
}

// Codec encodes requests to and decodes responses from the carrier dialect
type Codec struct {
	Username string
	Password string
}

// EncodeIssueRequest builds the issue envelope. Missing insured data is a
// precondition failure; the caller must not reach the network with it.
func (c *Codec) EncodeIssueRequest(p IssueParams) ([]byte, error) {
	if p.ProductCode == "" {
		return nil, fmt.Errorf("product code is required")
	}
	if p.InsuredName == "" {
		return nil, fmt.Errorf("insured name is required")
	}
	if p.TaxDocument == "" {
		return nil, fmt.Errorf("insured tax document is required")
	}
	if p.BirthDate.IsZero() {
		return nil, fmt.Errorf("insured birth date is required")
	}
	if p.StartDate.IsZero() {
		return nil, fmt.Errorf("coverage start date is required")
	}
	if p.EndDate.IsZero() {
		return nil, fmt.Errorf("coverage end date is required")
	}
	if p.PartnerOperationID == "" || len(p.PartnerOperationID) > 14 {
		return nil, fmt.Errorf("partner operation id must be 1-14 characters, got %q", p.PartnerOperationID)
	}

	inner := issueRequest{
		ProductCode:        p.ProductCode,
		PlanCode:           p.PlanCode,
		SalesChannel:       p.SalesChannel,
		PartnerOperationID: p.PartnerOperationID,
		Premium:            p.Premium.StringFixed(2),
		Insured: issueInsured{
			Name:        p.InsuredName,
			TaxDocument: p.TaxDocument,
			BirthDate:   p.BirthDate.Format(dateLayout),
			Sex:         p.Sex,
			StateCode:   p.StateCode,
		},
		Coverage: issueCoverage{
			StartDate: p.StartDate.Format(dateLayout),
			EndDate:   p.EndDate.Format(dateLayout),
		},
	}

	return c.wrap(opIssuePolicy, inner)
}

// EncodeCancelRequest builds the cancellation envelope
func (c *Codec) EncodeCancelRequest(p CancelParams) ([]byte, error) {
	if p.OperationNumber == "" {
		return nil, fmt.Errorf("operation number is required")
	}

	inner := cancelRequest{
		OperationNumber: p.OperationNumber,
		SalesChannel:    p.SalesChannel,
		InvoicePeriod:   p.InvoicePeriod,
	}

	return c.wrap(opCancelPolicy, inner)
}

func (c *Codec) wrap(operation string, inner any) ([]byte, error) {
	innerDoc, err := xml.Marshal(inner)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s parameters: %w", operation, err)
	}

	env := requestEnvelope{
		Auth: envelopeAuth{
			Username: c.Username,
			Password: c.Password,
		},
		Operation: envelopeOperation{
			Name:       operation,
			Parameters: cdataField{Text: xml.Header + string(innerDoc)},
		},
	}

	body, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", operation, err)
	}

	return append([]byte(xml.Header), body...), nil
}

// DecodeIssueResponse parses an issue response. Any shape the decoder does
// not recognize, including an envelope without the issue operation node,
// yields a non-success Result with "response node not found".
func DecodeIssueResponse(raw []byte) Result {
	res := Result{Raw: string(raw)}

	inner, ok := extractOperationResult(raw, opIssuePolicy)
	if !ok {
		res.ReturnMessage = "response node not found"
		return res
	}

	var ir issueResult
	if err := xml.Unmarshal([]byte(inner), &ir); err != nil {
		res.ReturnMessage = "response node not found"
		return res
	}

	res.ReturnCode = ir.ReturnCode
	res.ReturnMessage = ir.ReturnMessage
	res.PolicyNumber = ir.PolicyNumber
	res.CertificateNumber = ir.CertificateNumber
	res.OperationNumber = ir.OperationNumber
	res.Success = ir.ReturnCode == "0"
	return res
}

// DecodeCancelResponse parses a cancellation response with the same
// fold-to-Result semantics as DecodeIssueResponse.
func DecodeCancelResponse(raw []byte) Result {
	res := Result{Raw: string(raw)}

	inner, ok := extractOperationResult(raw, opCancelPolicy)
	if !ok {
		res.ReturnMessage = "response node not found"
		return res
	}

	var cr cancelResult
	if err := xml.Unmarshal([]byte(inner), &cr); err != nil {
		res.ReturnMessage = "response node not found"
		return res
	}

	res.ReturnCode = cr.ReturnCode
	res.ReturnMessage = cr.ReturnMessage
	res.Success = cr.ReturnCode == "0"
	return res
}

// extractOperationResult walks the outer envelope and returns the CDATA
// payload of the named operation node.
func extractOperationResult(raw []byte, operation string) (string, bool) {
	var env responseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return "", false
	}
	for _, op := range env.Operations {
		if op.Name == operation {
			return op.Result.Text, true
		}
	}
	return "", false
}
