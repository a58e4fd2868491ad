package values

// Lengths of the two recognized identifier schemes after normalization
const (
	CPFLength  = 11
	CNPJLength = 14
)

// NormalizeDigits strips every character that is not an ASCII decimal digit.
// Order is preserved; input without digits yields an empty string.
func NormalizeDigits(raw string) string {
	buf := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if isDigit(raw[i]) {
			buf = append(buf, raw[i])
		}
	}
	return string(buf)
}

// ValidateIdentifier reports whether raw, in any human-entered format, is a
// structurally and arithmetically valid CPF or CNPJ.
func ValidateIdentifier(raw string) bool {
	digits := NormalizeDigits(raw)

	switch len(digits) {
	case CPFLength:
		return ValidCPF(digits)
	case CNPJLength:
		return ValidCNPJ(digits)
	default:
		return false
	}
}

// ValidCPF checks both CPF check digits of an 11 digit string.
//
// Identifiers made of a single repeated digit (00000000000, 11111111111, ...)
// satisfy the arithmetic and are accepted. Use Policy to reject them.
func ValidCPF(digits string) bool {
	if len(digits) != CPFLength || !allDigits(digits) {
		return false
	}

	if cpfCheckDigit(digits, 9) != digitAt(digits, 9) {
		return false
	}
	return cpfCheckDigit(digits, 10) == digitAt(digits, 10)
}

// ValidCNPJ checks both CNPJ check digits of a 14 digit string.
func ValidCNPJ(digits string) bool {
	if len(digits) != CNPJLength || !allDigits(digits) {
		return false
	}

	first := [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	if cnpjCheckDigit(digits, first[:]) != digitAt(digits, 12) {
		return false
	}

	second := [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	return cnpjCheckDigit(digits, second[:]) == digitAt(digits, 13)
}

// cpfCheckDigit computes the expected digit at position pos (9 or 10) from
// the pos digits before it, weighted pos+1 down to 2.
func cpfCheckDigit(digits string, pos int) int {
	sum := 0
	for i := 0; i < pos; i++ {
		sum += digitAt(digits, i) * (pos + 1 - i)
	}
	return collapseCPFRemainder((sum * 10) % 11)
}

// collapseCPFRemainder maps remainders 10 and 11 to 0.
func collapseCPFRemainder(rem int) int {
	if rem == 10 || rem == 11 {
		return 0
	}
	return rem
}

// cnpjCheckDigit computes the expected digit following len(weights) digits.
func cnpjCheckDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digitAt(digits, i) * w
	}
	return cnpjDigitFromRemainder(sum % 11)
}

// cnpjDigitFromRemainder applies the rem < 2 -> 0, else 11 - rem rule.
func cnpjDigitFromRemainder(rem int) int {
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func digitAt(digits string, i int) int {
	return int(digits[i] - '0')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
