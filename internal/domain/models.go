package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultExpenseType is written when the requester leaves the type of expense blank.
const DefaultExpenseType = "Financial Services"

// MaxAttendees is the number of rows each attendee table on the form has.
const MaxAttendees = 5

// PaymentMethod selects which payment checkbox gets ticked.
type PaymentMethod int

const (
	PaymentUnspecified PaymentMethod = iota
	PaymentCard                      // "1": ASU Purchasing Card
	PaymentInvoice                   // "2": Direct supplier invoice
)

// ParsePaymentMethod accepts the form's wire values "1" and "2".
// An empty string is PaymentUnspecified; anything else is an error.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.TrimSpace(s) {
	case "":
		return PaymentUnspecified, nil
	case "1":
		return PaymentCard, nil
	case "2":
		return PaymentInvoice, nil
	default:
		return PaymentUnspecified, fmt.Errorf("invalid payment method %q: must be \"1\" or \"2\"", s)
	}
}

func (p PaymentMethod) String() string {
	switch p {
	case PaymentCard:
		return "1"
	case PaymentInvoice:
		return "2"
	default:
		return ""
	}
}

func (p PaymentMethod) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PaymentMethod) UnmarshalText(b []byte) error {
	v, err := ParsePaymentMethod(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Attendee is one row of the ASU faculty, staff or students table.
type Attendee struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Title      string `json:"title"`
}

// OtherAttendee is one row of the other attendees table.
type OtherAttendee struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Title       string `json:"title"`
}

// ExpenseForm is the logical data for one Business Meals and Related Expenses form.
// Empty strings mean "no value" and are never written.
type ExpenseForm struct {
	ExpenseType     string          `json:"expenseType,omitempty"`
	Location        string          `json:"location"`
	EventDate       string          `json:"eventDate"`
	BusinessPurpose string          `json:"businessPurpose"`
	CostCenter      string          `json:"costCenter"`
	PONumber        string          `json:"poNumber,omitempty"`
	TotalAmount     string          `json:"totalAmount"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	SupplierName    string          `json:"supplierName"`
	LargeGroupInfo  string          `json:"largeGroupInfo,omitempty"`
	RequesterName   string          `json:"requesterName"`
	RequesterPhone  string          `json:"requesterPhone"`
	RequesterDate   string          `json:"requesterDate"`
	TextSignature   string          `json:"textSignature,omitempty"`
	ASUAttendees    []Attendee      `json:"asuAttendees,omitempty"`
	OtherAttendees  []OtherAttendee `json:"otherAttendees,omitempty"`

	// Approvals block.
	DirectInquiriesTo     string `json:"directInquiriesTo,omitempty"`
	DirectInquiriesDate   string `json:"directInquiriesDate,omitempty"`
	CostCenterManager     string `json:"costCenterManager,omitempty"`
	CostCenterManagerDate string `json:"costCenterManagerDate,omitempty"`
	DeanDirector          string `json:"deanDirector,omitempty"`
	DeanDirectorDate      string `json:"deanDirectorDate,omitempty"`
	Other                 string `json:"other,omitempty"`
	OtherDate             string `json:"otherDate,omitempty"`
}

// EffectiveExpenseType returns the expense type, defaulting when blank.
func (f *ExpenseForm) EffectiveExpenseType() string {
	if strings.TrimSpace(f.ExpenseType) == "" {
		return DefaultExpenseType
	}
	return f.ExpenseType
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]`)

// DownloadName is the suggested file name for a filled form:
// <location>_<YYYY-MM-DD>.pdf, with the location reduced to [a-z0-9_].
func (f *ExpenseForm) DownloadName() string {
	loc := f.Location
	if loc == "" {
		loc = "unknown"
	}
	loc = unsafeName.ReplaceAllString(strings.ToLower(loc), "_")

	date := strings.TrimSpace(f.EventDate)
	parsed := false
	for _, layout := range []string{"2006-01-02", time.RFC3339, "01/02/2006", "1/2/2006"} {
		if t, err := time.Parse(layout, date); err == nil {
			date, parsed = t.Format("2006-01-02"), true
			break
		}
	}
	if !parsed {
		date = strings.NewReplacer("/", "-", " ", "-").Replace(date)
	}
	return loc + "_" + date + ".pdf"
}

// TemplateRecord describes an uploaded form template.
type TemplateRecord struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	StoredName   string    `json:"storedName"`
	Size         int64     `json:"size"`
	FieldCount   int       `json:"fieldCount"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// OutputRecord describes a persisted filled PDF. Form values are not kept.
type OutputRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	TemplateID  string    `json:"templateId"`
	FilledCount int       `json:"filledCount"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BuiltinTemplateID selects the shipped template wherever a template id is accepted.
const BuiltinTemplateID = "builtin"

// FillResponse is what a fill request returns to the browser.
type FillResponse struct {
	Success     bool     `json:"success"`
	URL         string   `json:"url,omitempty"`
	Base64      string   `json:"base64,omitempty"`
	Filename    string   `json:"filename,omitempty"`
	Error       string   `json:"error,omitempty"`
	Warning     string   `json:"warning,omitempty"`
	FieldNames  []string `json:"fieldNames"`
	FilledCount int      `json:"filledCount"`
	Events      []string `json:"events,omitempty"`
}

// FieldReport is the field-mapping troubleshooting view of one template.
type FieldReport struct {
	TemplateID   string
	TemplateName string
	GeneratedAt  time.Time
	Rows         []FieldReportRow
	// Unmapped lists logical keys no field resolved to.
	Unmapped []string
}

// FieldReportRow is one physical field in catalog order.
type FieldReportRow struct {
	Name       string
	Normalized string
	Keys       []string
}
