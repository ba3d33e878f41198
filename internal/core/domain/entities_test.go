package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallment(t *testing.T) {
	t.Run("flat rate with ceiling", func(t *testing.T) {
		// 3_000_000 * 1.02 / 6 = 510_000 exactly
		assert.Equal(t, int64(510_000), Installment(3_000_000, 2, 6))
	})

	t.Run("rounds up, never down", func(t *testing.T) {
		// 1_000_000 * 1.02 / 12 = 85_000
		assert.Equal(t, int64(85_000), Installment(1_000_000, 2, 12))
		// 1_000_000 * 1.02 / 7 = 145_714.28... -> 145_715
		assert.Equal(t, int64(145_715), Installment(1_000_000, 2, 7))
		// 100 / 3 = 33.33... -> 34
		assert.Equal(t, int64(34), Installment(100, 0, 3))
	})

	t.Run("zero rate", func(t *testing.T) {
		assert.Equal(t, int64(250_000), Installment(3_000_000, 0, 12))
	})

	t.Run("single month tenor", func(t *testing.T) {
		assert.Equal(t, int64(1_020_000), Installment(1_000_000, 2, 1))
	})

	t.Run("invalid inputs return zero", func(t *testing.T) {
		assert.Zero(t, Installment(0, 2, 6))
		assert.Zero(t, Installment(-1, 2, 6))
		assert.Zero(t, Installment(1_000_000, 2, 0))
		assert.Zero(t, Installment(1_000_000, 2, -3))
	})
}

func TestOutstanding(t *testing.T) {
	assert.Equal(t, int64(2_490_000), Outstanding(3_000_000, 510_000))
	assert.Equal(t, int64(0), Outstanding(510_000, 510_000))

	t.Run("overpayment clamps at zero", func(t *testing.T) {
		assert.Equal(t, int64(0), Outstanding(3_000_000, 4_000_000))
		assert.Equal(t, int64(0), Outstanding(0, 1))
	})
}

func TestLoanStatusDisplay(t *testing.T) {
	cases := map[LoanStatus]string{
		LoanPending:  "Dalam Pemeriksaan",
		LoanApproved: "Disetujui",
		LoanRejected: "Ditolak",
		LoanClosed:   "Lunas",
	}

	for status, display := range cases {
		assert.Equal(t, display, status.Display())

		// Round-trips through both forms.
		parsed, err := ParseLoanStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, parsed)

		parsed, err = ParseLoanStatus(display)
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}
}

func TestParseLoanStatus_Unknown(t *testing.T) {
	for _, s := range []string{"", "pending", "UNKNOWN", "Sudah Lunas"} {
		_, err := ParseLoanStatus(s)
		assert.ErrorIs(t, err, ErrValidation, "input %q", s)
	}
}

func TestLoanStatusIsTerminal(t *testing.T) {
	assert.False(t, LoanPending.IsTerminal())
	assert.False(t, LoanApproved.IsTerminal())
	assert.True(t, LoanRejected.IsTerminal())
	assert.True(t, LoanClosed.IsTerminal())
}

func TestParseSavingType(t *testing.T) {
	for _, s := range []string{"POKOK", "pokok"} {
		parsed, err := ParseSavingType(s)
		require.NoError(t, err)
		assert.Equal(t, SavingPokok, parsed)
	}

	parsed, err := ParseSavingType("sukarela")
	require.NoError(t, err)
	assert.Equal(t, SavingSukarela, parsed)

	_, err = ParseSavingType("deposito")
	assert.ErrorIs(t, err, ErrValidation)
}
