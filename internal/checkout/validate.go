package checkout

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Field validators. Each returns an inline error message, or "" when the
// value passes. Messages are user-facing and reported next to the field;
// validation failures never reach the remote store.

var phonePattern = regexp.MustCompile(`^05\d{8}$`)

// blockedCardPrefixes is the BIN denylist; cards from these ranges are
// not accepted.
var blockedCardPrefixes = []string{"4847", "4685", "4286"}

// phoneOperators maps mobile prefixes to their Saudi operator.
var phoneOperators = map[string][]string{
	"STC":    {"050", "053", "055", "058"},
	"Mobily": {"054", "056"},
	"Zain":   {"059"},
	"Virgin": {"057"},
}

// ValidatePhone checks a Saudi mobile number: 10 digits, 05 prefix.
func ValidatePhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return "رقم الجوال مطلوب"
	}
	if !phonePattern.MatchString(phone) {
		return "رقم الجوال يجب أن يبدأ بـ 05 ويتكون من 10 أرقام"
	}
	return ""
}

// ValidateName checks the shipping name: non-empty, at least 3 chars,
// letters only (any script).
func ValidateName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "الاسم الكامل مطلوب"
	}
	if len([]rune(trimmed)) < 3 {
		return "الاسم يجب أن يكون 3 أحرف على الأقل"
	}
	for _, r := range trimmed {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return "الاسم يجب أن يحتوي على حروف فقط"
		}
	}
	return ""
}

// ValidateCity checks the shipping city.
func ValidateCity(city string) string {
	trimmed := strings.TrimSpace(city)
	if trimmed == "" {
		return "المدينة مطلوبة"
	}
	if len([]rune(trimmed)) < 2 {
		return "اسم المدينة يجب أن يكون حرفين على الأقل"
	}
	return ""
}

// ValidateCardNumber checks a 16-digit card number against the BIN
// denylist. Spaces are ignored.
func ValidateCardNumber(cardNumber string) string {
	cleaned := strings.ReplaceAll(cardNumber, " ", "")
	if cleaned == "" {
		return "رقم البطاقة مطلوب"
	}
	if len(cleaned) != 16 {
		return "رقم البطاقة يجب أن يتكون من 16 رقم"
	}
	if !isDigits(cleaned) {
		return "رقم البطاقة يجب أن يحتوي على أرقام فقط"
	}
	if isBlockedCard(cleaned) {
		return "هذا النوع من البطاقات غير مقبول"
	}
	return ""
}

// ValidateCardName checks the cardholder name: ASCII letters only.
func ValidateCardName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "اسم حامل البطاقة مطلوب"
	}
	if len(trimmed) < 3 {
		return "الاسم يجب أن يكون 3 أحرف على الأقل"
	}
	for _, r := range trimmed {
		if r != ' ' && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return "الاسم يجب أن يحتوي على حروف إنجليزية فقط"
		}
	}
	return ""
}

// ValidateExpiry checks an MM/YY expiry against the given current time.
func ValidateExpiry(expiry string, now time.Time) string {
	if expiry == "" {
		return "تاريخ الانتهاء مطلوب"
	}
	if len(expiry) != 5 || expiry[2] != '/' {
		return "تاريخ الانتهاء يجب أن يكون بصيغة MM/YY"
	}

	month, err := strconv.Atoi(expiry[:2])
	if err != nil || month < 1 || month > 12 {
		return "الشهر غير صحيح"
	}
	year, err := strconv.Atoi(expiry[3:])
	if err != nil {
		return "تاريخ الانتهاء يجب أن يكون بصيغة MM/YY"
	}
	year += 2000

	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return "البطاقة منتهية الصلاحية"
	}
	return ""
}

// ValidateCVV checks the 3-digit security code.
func ValidateCVV(cvv string) string {
	if cvv == "" {
		return "رمز الأمان مطلوب"
	}
	if len(cvv) != 3 {
		return "رمز الأمان يجب أن يتكون من 3 أرقام"
	}
	if !isDigits(cvv) {
		return "رمز الأمان يجب أن يحتوي على أرقام فقط"
	}
	return ""
}

// ValidateNafathID checks a 10-digit national identity number.
func ValidateNafathID(id string) string {
	if len(id) != 10 || !isDigits(id) {
		return msgEnterValidNafath
	}
	return ""
}

// DetectOperator returns the operator for a Saudi mobile number, or
// "Unknown".
func DetectOperator(phone string) string {
	if len(phone) < 3 {
		return "Unknown"
	}
	prefix := phone[:3]
	for operator, prefixes := range phoneOperators {
		for _, p := range prefixes {
			if p == prefix {
				return operator
			}
		}
	}
	return "Unknown"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isBlockedCard(cardNumber string) bool {
	for _, prefix := range blockedCardPrefixes {
		if strings.HasPrefix(cardNumber, prefix) {
			return true
		}
	}
	return false
}
