package service

const (
	ClaimWindowDays     = 180  // lookback for tot_claim_cnt_l180d, inclusive on both ends
	DefaultMaxBatchSize = 1000 // items accepted by a single batch request
)

// excludedBanks never contribute to disb_bank_loan_wo_tbc. A missing or
// null bank is excluded as well.
var excludedBanks = map[string]struct{}{
	"LIZ": {},
	"LOM": {},
	"MKO": {},
	"SUG": {},
}
