package taxid

import (
	"github.com/google/uuid"

	"github.com/davidleathers/taxid-validator/internal/domain/values"
)

// Result is the outcome of validating one raw identifier
type Result struct {
	Input     string      `json:"input"`
	Digits    string      `json:"digits"`
	Kind      values.Kind `json:"kind"`
	Valid     bool        `json:"valid"`
	Formatted string      `json:"formatted,omitempty"`
	Code      string      `json:"code,omitempty"`
}

// Summary counts batch results per kind and validity
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	CPF     int `json:"cpf"`
	CNPJ    int `json:"cnpj"`
	Unknown int `json:"unknown"`
}

// Add folds one result into the summary
func (s *Summary) Add(r Result) {
	s.Total++
	if r.Valid {
		s.Valid++
	} else {
		s.Invalid++
	}

	switch r.Kind {
	case values.KindCPF:
		s.CPF++
	case values.KindCNPJ:
		s.CNPJ++
	default:
		s.Unknown++
	}
}

// Report is the outcome of a batch, with results in input order
type Report struct {
	RunID   uuid.UUID `json:"run_id"`
	Results []Result  `json:"results"`
	Summary Summary   `json:"summary"`
}

// AllValid reports whether every result in the batch is valid
func (r *Report) AllValid() bool {
	return r.Summary.Invalid == 0
}
