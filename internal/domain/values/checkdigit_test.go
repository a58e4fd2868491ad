package values

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleCPF  = "11144477735"
	sampleCNPJ = "11222333000181"
)

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "only punctuation", input: ".-/ ()", expected: ""},
		{name: "letters only", input: "abc-def", expected: ""},
		{name: "formatted CPF", input: "111.444.777-35", expected: "11144477735"},
		{name: "formatted CNPJ", input: "11.222.333/0001-81", expected: "11222333000181"},
		{name: "already normalized", input: "11144477735", expected: "11144477735"},
		{name: "surrounding whitespace", input: "  111 444 777 35\n", expected: "11144477735"},
		{name: "mixed letters keep order", input: "a1b2c3", expected: "123"},
		{name: "fullwidth digits are not digits", input: "１２３", expected: ""},
		{name: "arabic-indic digits are not digits", input: "٣٤٥6", expected: "6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDigits(tt.input))
		})
	}
}

func TestNormalizeDigits_Idempotent(t *testing.T) {
	inputs := []string{"", "111.444.777-35", "11.222.333/0001-81", "x9y8z7", "0000"}
	for _, in := range inputs {
		once := NormalizeDigits(in)
		assert.Equal(t, once, NormalizeDigits(once), "input %q", in)
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "sample CPF", input: sampleCPF, valid: true},
		{name: "sample CPF formatted", input: "111.444.777-35", valid: true},
		{name: "second CPF", input: "529.982.247-25", valid: true},
		{name: "CPF 12345678909", input: "123.456.789-09", valid: true},
		{name: "CPF wrong last digit", input: "123.456.789-01", valid: false},
		{name: "sample CNPJ", input: sampleCNPJ, valid: true},
		{name: "sample CNPJ formatted", input: "11.222.333/0001-81", valid: true},
		{name: "second CNPJ", input: "11.444.777/0001-61", valid: true},
		{name: "CNPJ wrong first check digit", input: "11.222.333/0001-91", valid: false},
		{name: "CNPJ wrong second check digit", input: "11.222.333/0001-82", valid: false},
		{name: "empty", input: "", valid: false},
		{name: "no digits", input: "not an id", valid: false},
		{name: "ten digits", input: "1114447773", valid: false},
		{name: "twelve digits", input: "111444777350", valid: false},
		{name: "thirteen digits", input: "1122233300018", valid: false},
		{name: "fifteen digits", input: "112223330001810", valid: false},
		{name: "CPF with trailing garbage digit", input: "111.444.777-35 0", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateIdentifier(tt.input))
		})
	}
}

func TestValidateIdentifier_RejectsUnrecognizedLengths(t *testing.T) {
	for n := 0; n <= 20; n++ {
		if n == CPFLength || n == CNPJLength {
			continue
		}
		input := strings.Repeat("0", n)
		assert.False(t, ValidateIdentifier(input), "length %d", n)
	}
}

func TestValidateIdentifier_FormattingInsensitive(t *testing.T) {
	pairs := [][2]string{
		{"111.444.777-35", "11144477735"},
		{"111.444.777-36", "11144477736"},
		{"11.222.333/0001-81", "11222333000181"},
		{"11 222 333 0001 80", "11222333000180"},
	}
	for _, p := range pairs {
		assert.Equal(t, NormalizeDigits(p[0]), NormalizeDigits(p[1]))
		assert.Equal(t, ValidateIdentifier(p[0]), ValidateIdentifier(p[1]), "%q vs %q", p[0], p[1])
	}
}

func TestValidCPF_RemainderCollapse(t *testing.T) {
	// first pass remainder is 10, so the first check digit is 0
	assert.True(t, ValidCPF("10000000108"))
	assert.False(t, ValidCPF("10000000118"))

	// second pass remainder is 10, so the second check digit is 0
	assert.True(t, ValidCPF("10000002810"))
	assert.False(t, ValidCPF("10000002811"))

	assert.Equal(t, 0, collapseCPFRemainder(10))
	assert.Equal(t, 0, collapseCPFRemainder(11))
	assert.Equal(t, 9, collapseCPFRemainder(9))
	assert.Equal(t, 0, collapseCPFRemainder(0))
}

func TestValidCNPJ_LowRemainder(t *testing.T) {
	// first pass remainder is 1
	assert.True(t, ValidCNPJ("11222333000009"))
	// both remainders are 0
	assert.True(t, ValidCNPJ("11222333001900"))
	assert.False(t, ValidCNPJ("11222333001901"))

	assert.Equal(t, 0, cnpjDigitFromRemainder(0))
	assert.Equal(t, 0, cnpjDigitFromRemainder(1))
	assert.Equal(t, 9, cnpjDigitFromRemainder(2))
	assert.Equal(t, 1, cnpjDigitFromRemainder(10))
}

func TestValidCPF_RejectsWrongShape(t *testing.T) {
	assert.False(t, ValidCPF(""))
	assert.False(t, ValidCPF("111.444.777-35"))
	assert.False(t, ValidCPF("1114447773a"))
	assert.False(t, ValidCPF(sampleCNPJ))
}

func TestValidCNPJ_RejectsWrongShape(t *testing.T) {
	assert.False(t, ValidCNPJ(""))
	assert.False(t, ValidCNPJ("11.222.333/0001-81"))
	assert.False(t, ValidCNPJ("1122233300018x"))
	assert.False(t, ValidCNPJ(sampleCPF))
}

func TestValidCPF_SingleDigitMutations(t *testing.T) {
	require.True(t, ValidCPF(sampleCPF))

	mutations := singleDigitMutations(sampleCPF)
	require.Len(t, mutations, CPFLength*9)
	for _, m := range mutations {
		assert.False(t, ValidateIdentifier(m), "mutation %s accepted", m)
	}
}

func TestValidCNPJ_SingleDigitMutations(t *testing.T) {
	require.True(t, ValidCNPJ(sampleCNPJ))

	for _, m := range singleDigitMutations(sampleCNPJ) {
		assert.False(t, ValidateIdentifier(m), "mutation %s accepted", m)
	}
}

func TestAdjacentTranspositions(t *testing.T) {
	for _, sample := range []string{sampleCPF, sampleCNPJ} {
		swaps := adjacentSwaps(sample)
		require.NotEmpty(t, swaps)
		for _, s := range swaps {
			assert.False(t, ValidateIdentifier(s), "transposition %s of %s accepted", s, sample)
		}
	}
}

func TestRepeatedDigits_Pinned(t *testing.T) {
	for d := byte('0'); d <= '9'; d++ {
		cpf := strings.Repeat(string(d), CPFLength)
		assert.True(t, ValidateIdentifier(cpf), "repeated CPF %s", cpf)

		cnpj := strings.Repeat(string(d), CNPJLength)
		assert.Equal(t, d == '0', ValidateIdentifier(cnpj), "repeated CNPJ %s", cnpj)
	}
}

func TestGeneratedIdentifiersValidate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		cpf := randomCPF(rng)
		assert.True(t, ValidateIdentifier(cpf), "generated CPF %s", cpf)

		cnpj := randomCNPJ(rng)
		assert.True(t, ValidateIdentifier(cnpj), "generated CNPJ %s", cnpj)
	}
}

func singleDigitMutations(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		for c := byte('0'); c <= '9'; c++ {
			if c == s[i] {
				continue
			}
			b := []byte(s)
			b[i] = c
			out = append(out, string(b))
		}
	}
	return out
}

func adjacentSwaps(s string) []string {
	var out []string
	for i := 0; i+1 < len(s); i++ {
		if s[i] == s[i+1] {
			continue
		}
		b := []byte(s)
		b[i], b[i+1] = b[i+1], b[i]
		out = append(out, string(b))
	}
	return out
}

func randomDigits(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + rng.Intn(10))
	}
	return string(b)
}

func randomCPF(rng *rand.Rand) string {
	s := randomDigits(rng, 9)
	s += string(rune('0' + cpfCheckDigit(s, 9)))
	return s + string(rune('0'+cpfCheckDigit(s, 10)))
}

func randomCNPJ(rng *rand.Rand) string {
	s := randomDigits(rng, 12)
	s += string(rune('0' + cnpjCheckDigit(s, []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})))
	return s + string(rune('0'+cnpjCheckDigit(s, []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})))
}
