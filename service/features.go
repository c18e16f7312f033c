package service

import (
	"math"
	"time"

	"github.com/TrashScientist/contract-features/domain"
)

const secondsPerDay = 24 * 60 * 60

// recentClaims counts claims dated within [appDate-180d, appDate].
func recentClaims(contracts []domain.Contract, appDate time.Time) int {
	windowStart := appDate.AddDate(0, 0, -ClaimWindowDays)

	count := 0
	for _, c := range contracts {
		if !c.Valid {
			continue
		}
		claimDate, ok := parseContractDate(c.ClaimDate)
		if !ok {
			continue
		}
		if !claimDate.Before(windowStart) && !claimDate.After(appDate) {
			count++
		}
	}

	if count == 0 {
		return domain.NoClaimsSentinel
	}
	return count
}

// disbursedLoanSum adds loan_summa over dated contracts from banks outside
// the excluded set.
func disbursedLoanSum(contracts []domain.Contract) float64 {
	sum := 0.0
	for _, c := range contracts {
		if !c.Valid {
			continue
		}
		if !c.ContractDate.Truthy() || isExcludedBank(c.Bank) || !c.LoanSumma.Truthy() {
			continue
		}
		amount, ok := c.LoanSumma.Float()
		if !ok {
			continue
		}
		sum += amount
	}

	// finite amounts can still overflow the total
	if sum <= 0 || math.IsInf(sum, 0) {
		return domain.NoLoanSumSentinel
	}
	return sum
}

func isExcludedBank(bank domain.Value) bool {
	if bank.IsNull() {
		return true
	}
	name, ok := bank.Text()
	if !ok {
		return false
	}
	_, excluded := excludedBanks[name]
	return excluded
}

// daysSinceLastLoan returns whole days between the latest contract_date
// carrying a summa and the application date.
func daysSinceLastLoan(contracts []domain.Contract, appDate time.Time) int {
	var last time.Time
	found := false

	for _, c := range contracts {
		if !c.Valid {
			continue
		}
		if !c.ContractDate.Truthy() || !c.Summa.Truthy() {
			continue
		}
		contractDate, ok := parseContractDate(c.ContractDate)
		if !ok {
			continue
		}
		if !found || contractDate.After(last) {
			last = contractDate
			found = true
		}
	}

	if !found {
		return domain.NoLastLoanSentinel
	}
	return floorDiv(appDate.Unix()-last.Unix(), secondsPerDay)
}

// floorDiv rounds towards negative infinity, so a contract dated after the
// application date counts as a negative number of days.
func floorDiv(a, b int64) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return int(q)
}
