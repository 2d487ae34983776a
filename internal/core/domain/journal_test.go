package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remit-backoffice/pkg/apperror"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestNewJournalEntry_Balanced(t *testing.T) {
	entry, err := NewJournalEntry("TR-SND-10042", "transfer", time.Now(), []JournalLine{
		DebitLine("3015", CurrencyIQD, d("1000000")),
		CreditLine(TransitAccountCode, CurrencyIQD, d("1000000")),
	})
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, "TR-SND-10042", entry.EntryNumber)
	assert.Len(t, entry.Lines, 2)
	assert.NotEqual(t, entry.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestNewJournalEntry_UnbalancedRejected(t *testing.T) {
	entry, err := NewJournalEntry("TR-SND-10042", "transfer", time.Now(), []JournalLine{
		DebitLine("3015", CurrencyIQD, d("1000000")),
		CreditLine(TransitAccountCode, CurrencyIQD, d("999999")),
	})
	assert.Nil(t, entry)
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "LGR_001", appErr.Code)
}

func TestNewJournalEntry_BalancedPerCurrency(t *testing.T) {
	// Balanced in total but not per currency must be rejected.
	entry, err := NewJournalEntry("TR-SND-10043", "transfer", time.Now(), []JournalLine{
		DebitLine("3015", CurrencyIQD, d("100")),
		CreditLine(TransitAccountCode, CurrencyUSD, d("100")),
	})
	assert.Nil(t, entry)
	require.Error(t, err)
	assert.Equal(t, "LGR_001", err.(*apperror.AppError).Code)

	// Two currencies, each balanced, is fine.
	entry, err = NewJournalEntry("TR-SND-10044", "transfer", time.Now(), []JournalLine{
		DebitLine("3015", CurrencyIQD, d("100")),
		CreditLine(TransitAccountCode, CurrencyIQD, d("100")),
		DebitLine("3015", CurrencyUSD, d("50")),
		CreditLine(TransitAccountCode, CurrencyUSD, d("50")),
	})
	require.NoError(t, err)
	assert.Len(t, entry.Lines, 4)
}

func TestNewJournalEntry_LineMustHaveOneSide(t *testing.T) {
	tests := []struct {
		name string
		line JournalLine
	}{
		{"both sides", JournalLine{AccountCode: "3015", Currency: CurrencyIQD, Debit: d("10"), Credit: d("10")}},
		{"neither side", JournalLine{AccountCode: "3015", Currency: CurrencyIQD}},
		{"negative debit", JournalLine{AccountCode: "3015", Currency: CurrencyIQD, Debit: d("-10")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJournalEntry("TR-SND-1", "transfer", time.Now(), []JournalLine{
				tt.line,
				CreditLine(TransitAccountCode, CurrencyIQD, d("10")),
			})
			require.Error(t, err)
		})
	}
}

func TestNewJournalEntry_RequiredFields(t *testing.T) {
	lines := []JournalLine{
		DebitLine("3015", CurrencyIQD, d("10")),
		CreditLine(TransitAccountCode, CurrencyIQD, d("10")),
	}

	_, err := NewJournalEntry("", "transfer", time.Now(), lines)
	require.Error(t, err)

	_, err = NewJournalEntry("TR-SND-1", "transfer", time.Now(), lines[:1])
	require.Error(t, err)

	_, err = NewJournalEntry("TR-SND-1", "transfer", time.Now(), []JournalLine{
		DebitLine("", CurrencyIQD, d("10")),
		CreditLine(TransitAccountCode, CurrencyIQD, d("10")),
	})
	require.Error(t, err)

	_, err = NewJournalEntry("TR-SND-1", "transfer", time.Now(), []JournalLine{
		DebitLine("3015", Currency("EUR"), d("10")),
		CreditLine(TransitAccountCode, Currency("EUR"), d("10")),
	})
	require.Error(t, err)
}

func TestJournalLine_SignedAmount(t *testing.T) {
	assert.True(t, CreditLine("3015", CurrencyIQD, d("100")).SignedAmount().Equal(d("100")))
	assert.True(t, DebitLine("3015", CurrencyIQD, d("100")).SignedAmount().Equal(d("-100")))
}

func TestPosting_SignedAmount(t *testing.T) {
	p := Posting{Credit: d("40"), Debit: d("0")}
	assert.True(t, p.SignedAmount().Equal(d("40")))

	p = Posting{Debit: d("25")}
	assert.True(t, p.SignedAmount().Equal(d("-25")))
}
