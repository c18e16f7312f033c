package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/TrashScientist/contract-features/domain"
)

// parseContracts decodes the raw contracts field. An absent field yields an
// empty list and no error; undecodable input yields an empty list and the
// decode error, which callers log and otherwise ignore.
func parseContracts(raw domain.RawContracts) ([]domain.Contract, error) {
	var data []byte
	switch {
	case len(raw.Inline) > 0:
		data = raw.Inline
	case raw.Text != "":
		data = []byte(raw.Text)
	default:
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode contracts: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode contracts: unexpected data after top-level value")
	}

	if decoded == nil {
		return nil, nil
	}
	items, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("decode contracts: expected a JSON array, got %T", decoded)
	}

	contracts := make([]domain.Contract, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			contracts = append(contracts, domain.Contract{})
			continue
		}
		contracts = append(contracts, domain.ContractFromMap(m))
	}
	return contracts, nil
}
