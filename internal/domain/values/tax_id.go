package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/davidleathers/taxid-validator/internal/domain/errors"
)

// Kind identifies which Brazilian registry an identifier belongs to
type Kind int

const (
	KindUnknown Kind = iota
	KindCPF
	KindCNPJ
)

// String returns the lowercase kind name
func (k Kind) String() string {
	switch k {
	case KindCPF:
		return "cpf"
	case KindCNPJ:
		return "cnpj"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind by name
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ParseKind parses a kind name, case-insensitively
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpf":
		return KindCPF, nil
	case "cnpj":
		return KindCNPJ, nil
	default:
		return KindUnknown, fmt.Errorf("unknown identifier kind: %q", s)
	}
}

// DetectKind classifies raw by its digit count alone, without checking digits
func DetectKind(raw string) Kind {
	return kindOfLength(len(NormalizeDigits(raw)))
}

func kindOfLength(n int) Kind {
	switch n {
	case CPFLength:
		return KindCPF
	case CNPJLength:
		return KindCNPJ
	default:
		return KindUnknown
	}
}

// TaxID represents a validated CPF or CNPJ value object
type TaxID struct {
	digits string // normalized, 11 or 14 digits
}

// NewTaxID creates a TaxID with the default policy
func NewTaxID(raw string) (TaxID, error) {
	return DefaultPolicy.Check(raw)
}

// MustNewTaxID creates TaxID and panics on error (for constants/tests)
func MustNewTaxID(raw string) TaxID {
	id, err := NewTaxID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the bare digits
func (t TaxID) String() string {
	return t.digits
}

// Digits returns the bare digits (alias for String)
func (t TaxID) Digits() string {
	return t.digits
}

// Kind returns the registry the identifier belongs to
func (t TaxID) Kind() Kind {
	return kindOfLength(len(t.digits))
}

// IsEmpty checks if the TaxID is the zero value
func (t TaxID) IsEmpty() bool {
	return t.digits == ""
}

// Equal checks if two TaxID values are equal
func (t TaxID) Equal(other TaxID) bool {
	return t.digits == other.digits
}

// Formatted returns the conventional mask: 000.000.000-00 for CPF and
// 00.000.000/0000-00 for CNPJ.
func (t TaxID) Formatted() string {
	d := t.digits
	switch t.Kind() {
	case KindCPF:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	case KindCNPJ:
		return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
	default:
		return d
	}
}

// HasRepeatedDigits reports whether every digit is the same
func (t TaxID) HasRepeatedDigits() bool {
	return repeatedDigits(t.digits)
}

// MarshalJSON implements JSON marshaling
func (t TaxID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.digits)
}

// UnmarshalJSON implements JSON unmarshaling
func (t *TaxID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := NewTaxID(raw)
	if err != nil {
		return err
	}

	*t = id
	return nil
}

// Value implements driver.Valuer for database storage
func (t TaxID) Value() (driver.Value, error) {
	if t.digits == "" {
		return nil, nil
	}
	return t.digits, nil
}

// Scan implements sql.Scanner for database retrieval
func (t *TaxID) Scan(value interface{}) error {
	if value == nil {
		*t = TaxID{}
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TaxID", value)
	}

	if str == "" {
		*t = TaxID{}
		return nil
	}

	id, err := NewTaxID(str)
	if err != nil {
		return err
	}

	*t = id
	return nil
}

// Policy holds optional rules applied on top of the check-digit arithmetic.
// The zero value accepts exactly what ValidateIdentifier accepts.
type Policy struct {
	// RejectRepeatedDigits refuses identifiers made of one repeated digit,
	// which the check-digit scheme alone lets through.
	RejectRepeatedDigits bool
}

// DefaultPolicy applies no rules beyond the check digits
var DefaultPolicy = Policy{}

// StrictPolicy also rejects repeated-digit identifiers
var StrictPolicy = Policy{RejectRepeatedDigits: true}

// Check normalizes raw and validates it, returning a typed validation error
// describing the first failed rule.
func (p Policy) Check(raw string) (TaxID, error) {
	digits := NormalizeDigits(raw)

	if digits == "" {
		return TaxID{}, errors.NewValidationError(errors.CodeTaxIDEmpty,
			"identifier has no digits")
	}

	var valid bool
	switch len(digits) {
	case CPFLength:
		valid = ValidCPF(digits)
	case CNPJLength:
		valid = ValidCNPJ(digits)
	default:
		return TaxID{}, errors.NewValidationError(errors.CodeTaxIDInvalidLength,
			fmt.Sprintf("identifier has %d digits, expected %d or %d", len(digits), CPFLength, CNPJLength)).
			WithDetails(map[string]interface{}{"length": len(digits)})
	}

	kind := kindOfLength(len(digits))
	if !valid {
		return TaxID{}, errors.NewValidationError(errors.CodeTaxIDInvalidCheck,
			fmt.Sprintf("invalid %s check digits", strings.ToUpper(kind.String()))).
			WithDetails(map[string]interface{}{"kind": kind.String()})
	}

	if p.RejectRepeatedDigits && repeatedDigits(digits) {
		return TaxID{}, errors.NewValidationError(errors.CodeTaxIDRepeatedDigits,
			fmt.Sprintf("%s made of a single repeated digit", strings.ToUpper(kind.String()))).
			WithDetails(map[string]interface{}{"kind": kind.String()})
	}

	return TaxID{digits: digits}, nil
}

// Valid reports whether raw passes the policy
func (p Policy) Valid(raw string) bool {
	_, err := p.Check(raw)
	return err == nil
}

func repeatedDigits(s string) bool {
	if s == "" {
		return false
	}
	return strings.Count(s, s[:1]) == len(s)
}
