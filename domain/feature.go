package domain

// Sentinel values reported when a feature has no qualifying data.
// A zero claim count is reported as NoClaimsSentinel as well, so the value
// does not distinguish "no claims in window" from "no contracts at all".
const (
	NoClaimsSentinel   = -3
	NoLoanSumSentinel  = -1.0
	NoLastLoanSentinel = -1
)

type FeatureResult struct {
	ID                float64 `json:"id"`
	TotClaimCntL180d  int     `json:"tot_claim_cnt_l180d"`
	DisbBankLoanWoTBC float64 `json:"disb_bank_loan_wo_tbc"`
	DaySinceLastLoan  int     `json:"day_sinlastloan"`
}

// SentinelResult returns the result reported for an applicant without
// usable contract data.
func SentinelResult(id float64) FeatureResult {
	return FeatureResult{
		ID:                id,
		TotClaimCntL180d:  NoClaimsSentinel,
		DisbBankLoanWoTBC: NoLoanSumSentinel,
		DaySinceLastLoan:  NoLastLoanSentinel,
	}
}
