package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/TrashScientist/contract-features/domain"
)

type MockRecorder struct {
	Results  []domain.FeatureResult
	Rejected int
}

func (m *MockRecorder) FeaturesCalculated(_ context.Context, result domain.FeatureResult) {
	m.Results = append(m.Results, result)
}

func (m *MockRecorder) ContractsRejected(context.Context) {
	m.Rejected++
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(rec Recorder, opts ...Option) *FeatureService {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewFeatureService(rec, opts...)
}

func contractsJSON(t *testing.T, contracts ...any) domain.RawContracts {
	t.Helper()
	b, err := json.Marshal(contracts)
	if err != nil {
		t.Fatalf("marshal contracts: %v", err)
	}
	return domain.ContractsText(string(b))
}

func assertSentinels(t *testing.T, got domain.FeatureResult) {
	t.Helper()
	if got.TotClaimCntL180d != -3 || got.DisbBankLoanWoTBC != -1 || got.DaySinceLastLoan != -1 {
		t.Errorf("expected sentinels (-3, -1, -1), got (%d, %v, %d)",
			got.TotClaimCntL180d, got.DisbBankLoanWoTBC, got.DaySinceLastLoan)
	}
}

func TestCalculateFeatures_EmptyContracts(t *testing.T) {
	tests := []struct {
		name      string
		contracts domain.RawContracts
	}{
		{"null", domain.RawContracts{}},
		{"empty string", domain.ContractsText("")},
		{"empty list", domain.ContractsText("[]")},
		{"inline empty list", domain.RawContracts{Inline: json.RawMessage("[]")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &MockRecorder{}
			svc := newTestService(rec)

			got := svc.CalculateFeatures(context.Background(), domain.ApplicationRequest{
				ID:              1234,
				ApplicationDate: "2024-01-01T00:00:00",
				Contracts:       tt.contracts,
			})

			if got.ID != 1234 {
				t.Errorf("expected id 1234, got %v", got.ID)
			}
			assertSentinels(t, got)
			if rec.Rejected != 0 {
				t.Errorf("empty contracts should not count as rejected")
			}
			if len(rec.Results) != 1 {
				t.Errorf("expected recorder to be called once, got %d", len(rec.Results))
			}
		})
	}
}

func TestCalculateFeatures_InvalidJSON(t *testing.T) {
	for _, raw := range []string{"not valid json", "invalid-json", `{"bank":"001"}`, "42", `[{"a":1}] trailing`} {
		rec := &MockRecorder{}
		svc := newTestService(rec)

		got := svc.CalculateFeatures(context.Background(), domain.ApplicationRequest{
			ID:              1,
			ApplicationDate: "2024-01-01T00:00:00",
			Contracts:       domain.ContractsText(raw),
		})

		assertSentinels(t, got)
		if rec.Rejected != 1 {
			t.Errorf("%q: expected one rejected contracts payload, got %d", raw, rec.Rejected)
		}
	}
}

func TestCalculateFeatures_SingleContract(t *testing.T) {
	svc := newTestService(&MockRecorder{})

	got := svc.CalculateFeatures(context.Background(), domain.ApplicationRequest{
		ID:              1234,
		ApplicationDate: "2024-01-02T00:00:00",
		Contracts: contractsJSON(t, map[string]any{
			"contract_id":   "1001",
			"contract_date": "01.01.2024",
			"claim_date":    "01.01.2024",
			"bank":          "001",
			"loan_summa":    5000,
			"summa":         5000,
		}),
	})

	want := domain.FeatureResult{ID: 1234, TotClaimCntL180d: 1, DisbBankLoanWoTBC: 5000, DaySinceLastLoan: 1}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestCalculateFeatures_MultipleContracts(t *testing.T) {
	svc := newTestService(&MockRecorder{})

	got := svc.CalculateFeatures(context.Background(), domain.ApplicationRequest{
		ID:              1234,
		ApplicationDate: "2024-01-02T00:00:00",
		Contracts: contractsJSON(t,
			map[string]any{"bank": "001", "summa": 5000, "loan_summa": 5000, "claim_date": "01.01.2024", "contract_date": "01.01.2024"},
			map[string]any{"bank": "002", "summa": 3000, "loan_summa": 3000, "claim_date": "02.01.2024", "contract_date": "02.01.2024"},
		),
	})

	if got.TotClaimCntL180d != 2 {
		t.Errorf("expected 2 claims, got %d", got.TotClaimCntL180d)
	}
	if got.DisbBankLoanWoTBC != 8000 {
		t.Errorf("expected loan sum 8000, got %v", got.DisbBankLoanWoTBC)
	}
	if got.DaySinceLastLoan != 0 {
		t.Errorf("expected 0 days since last loan, got %d", got.DaySinceLastLoan)
	}
}

func TestCalculateFeatures_ExcludedBank(t *testing.T) {
	svc := newTestService(&MockRecorder{})

	got := svc.CalculateFeatures(context.Background(), domain.ApplicationRequest{
		ID:              1,
		ApplicationDate: "2024-01-02T00:00:00",
		Contracts: contractsJSON(t,
			map[string]any{"bank": "001", "summa": 5000, "loan_summa": 5000, "contract_date": "01.01.2024"},
			map[string]any{"bank": "LIZ", "summa": 3000, "loan_summa": 3000, "contract_date": "01.01.2024"},
		),
	})

	if got.DisbBankLoanWoTBC != 5000 {
		t.Errorf("expected LIZ loan to be excluded, got %v", got.DisbBankLoanWoTBC)
	}
}

func TestCalculateFeatures_MalformedContent(t *testing.T) {
	rec := &MockRecorder{}
	svc := newTestService(rec)

	raw := `[null, {}, "text", 7, [1, 2],
		{"bank": "001", "loan_summa": "invalid", "summa": "invalid", "contract_date": "01.01.2024", "claim_date": "32.13.2023"},
		{"bank": "002", "loan_summa": 2500, "summa": 2500, "contract_date": "15.12.2023", "claim_date": "15.12.2023"}]`

	got := svc.CalculateFeatures(context.Background(), domain.ApplicationRequest{
		ID:              9,
		ApplicationDate: "2024-01-01T00:00:00",
		Contracts:       domain.ContractsText(raw),
	})

	want := domain.FeatureResult{ID: 9, TotClaimCntL180d: 1, DisbBankLoanWoTBC: 2500, DaySinceLastLoan: 0}
	// summa "invalid" is truthy, so 01.01.2024 is the latest loan date
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if rec.Rejected != 0 {
		t.Errorf("malformed entries should not reject the whole list")
	}
}

func TestCalculateFeatures_InlineList(t *testing.T) {
	svc := newTestService(&MockRecorder{})

	got := svc.CalculateFeatures(context.Background(), domain.ApplicationRequest{
		ID:              1,
		ApplicationDate: "2024-01-02",
		Contracts: domain.RawContracts{Inline: json.RawMessage(
			`[{"bank":"001","loan_summa":"1000","summa":1,"contract_date":"01.01.2024","claim_date":"01.01.2024"}]`,
		)},
	})

	want := domain.FeatureResult{ID: 1, TotClaimCntL180d: 1, DisbBankLoanWoTBC: 1000, DaySinceLastLoan: 1}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestCalculateFeatures_InvalidApplicationDateFallsBackToNow(t *testing.T) {
	svc := newTestService(&MockRecorder{})

	got := svc.CalculateFeatures(context.Background(), domain.ApplicationRequest{
		ID:              1,
		ApplicationDate: "invalid-date",
		Contracts: contractsJSON(t, map[string]any{
			"bank": "001", "summa": 1, "loan_summa": 1, "contract_date": "01.05.2024", "claim_date": "01.05.2024",
		}),
	})

	// fixedNow is 2024-06-01T12:00
	if got.DaySinceLastLoan != 31 {
		t.Errorf("expected 31 days, got %d", got.DaySinceLastLoan)
	}
	if got.TotClaimCntL180d != 1 {
		t.Errorf("expected 1 claim, got %d", got.TotClaimCntL180d)
	}
}

func TestCalculateFeatures_Deterministic(t *testing.T) {
	svc := newTestService(&MockRecorder{})
	req := domain.ApplicationRequest{
		ID:              5,
		ApplicationDate: "2024-03-10T08:30:00Z",
		Contracts: contractsJSON(t,
			map[string]any{"bank": "001", "summa": 10, "loan_summa": 10.5, "contract_date": "01.03.2024", "claim_date": "01.02.2024"},
			map[string]any{"bank": "MKO", "summa": 10, "loan_summa": 99, "contract_date": "05.03.2024", "claim_date": "01.01.2023"},
		),
	}

	first := svc.CalculateFeatures(context.Background(), req)
	second := svc.CalculateFeatures(context.Background(), req)
	if first != second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestCalculateBatch(t *testing.T) {
	rec := &MockRecorder{}
	svc := newTestService(rec, WithMaxBatchSize(2))

	reqs := []domain.ApplicationRequest{
		{ID: 1234, ApplicationDate: "2024-01-01T00:00:00", Contracts: contractsJSON(t, map[string]any{
			"bank": "001", "summa": 5000, "loan_summa": 5000, "claim_date": "01.01.2024", "contract_date": "01.01.2024",
		})},
		{ID: 5678, ApplicationDate: "2024-01-02T00:00:00"},
	}

	results, err := svc.CalculateBatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].ID != 1234 || results[1].ID != 5678 {
		t.Fatalf("unexpected results %+v", results)
	}
	assertSentinels(t, results[1])

	_, err = svc.CalculateBatch(context.Background(), append(reqs, reqs[0]))
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("expected ErrBatchTooLarge, got %v", err)
	}
}
