// Package checkout implements the multi-step checkout verification
// state machine: a client-driven wizard whose gated transitions are
// driven by asynchronous approval signals pushed through the remote
// document store.
package checkout

import "SidraStore/internal/core/domain"

// User-facing messages. The storefront is Arabic-first.
const (
	msgEnterValidOtp    = "الرجاء إدخال رمز التحقق بشكل صحيح"
	msgEnterValidPin    = "الرجاء إدخال رمز PIN المكون من 4 أرقام"
	msgEnterValidNafath = "الرجاء إدخال رقم هوية نفاذ صحيح (10 أرقام)"
	msgSendOtpFailed    = "فشل إرسال رمز التحقق"
	msgOrderFailed      = "حدث خطأ أثناء معالجة الطلب. الرجاء المحاولة مرة أخرى."
	msgSelectOperator   = "الرجاء اختيار مزود الخدمة"

	msgVerifyingCardOtp  = "جاري التحقق من رمز البطاقة..."
	msgVerifyingCardPin  = "جاري التحقق من رمز PIN..."
	msgVerifyingPhoneOtp = "جاري التحقق من رمز الجوال..."
	msgVerifyingNafath   = "جاري التحقق من نفاذ..."

	msgRejectedOtp    = "رمز التحقق غير صحيح. يرجى المحاولة مرة أخرى."
	msgRejectedPin    = "رمز PIN غير صحيح. يرجى المحاولة مرة أخرى."
	msgRejectedNafath = "فشل التحقق من نفاذ. يرجى المحاولة مرة أخرى."
)

// progressMessage is shown next to the spinner while the submission
// waits for the external reviewer.
func progressMessage(step domain.Step) string {
	switch step {
	case domain.StepCardOtp:
		return msgVerifyingCardOtp
	case domain.StepCardPin:
		return msgVerifyingCardPin
	case domain.StepPhoneOtp:
		return msgVerifyingPhoneOtp
	case domain.StepNafath:
		return msgVerifyingNafath
	}
	return ""
}

// rejectionMessage is shown inline when the reviewer rejects a step.
func rejectionMessage(step domain.Step) string {
	switch step {
	case domain.StepCardOtp, domain.StepPhoneOtp:
		return msgRejectedOtp
	case domain.StepCardPin:
		return msgRejectedPin
	case domain.StepNafath:
		return msgRejectedNafath
	}
	return ""
}
