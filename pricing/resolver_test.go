package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func catalogItem(id uint, price int64, qty int) LineItem {
	return LineItem{
		ID:        id,
		Ref:       CatalogRef{ProductID: id},
		Title:     "part",
		UnitPrice: dec(price),
		Quantity:  qty,
	}
}

func TestResolvePersonalOutranksLargerPromo(t *testing.T) {
	items := []LineItem{catalogItem(1, 1000, 1)}
	candidates := []Candidate{
		{Kind: KindPromo, Label: "SALE50", Value: Percent{Rate: dec(50)}},
		{Kind: KindPersonal, Label: "personal 5%", Value: Percent{Rate: dec(5)}},
	}

	res := Resolve(dec(1000), items, candidates)

	require.NotNil(t, res.Winner)
	assert.Equal(t, KindPersonal, res.Winner.Kind)
	require.Len(t, res.Others, 1)
	assert.Equal(t, KindPromo, res.Others[0].Kind)
	assert.Contains(t, res.Others[0].Reason, "outranked")
}

func TestResolveSameTierPicksLargerRealizedValue(t *testing.T) {
	// 10% of 4000 = 400 < fixed 500, so the fixed rule wins.
	items := []LineItem{catalogItem(1, 4000, 1)}
	candidates := []Candidate{
		{Kind: KindGroup, Label: "ten percent", Value: Percent{Rate: dec(10)}},
		{Kind: KindGroup, Label: "five hundred off", Value: Fixed{Amount: dec(500)}},
	}

	res := Resolve(dec(4000), items, candidates)

	require.NotNil(t, res.Winner)
	assert.Equal(t, "five hundred off", res.Winner.Label)
	require.Len(t, res.Others, 1)
	assert.Contains(t, res.Others[0].Reason, "smaller value")
}

func TestResolveSameTierComparesCappedValues(t *testing.T) {
	// 20% of 10000 = 2000 but capped at 300, so the plain 5% (=500) wins.
	items := []LineItem{catalogItem(1, 10000, 1)}
	candidates := []Candidate{
		{Kind: KindGroup, Label: "capped twenty", Value: Percent{Rate: dec(20), MaxAmount: decPtr(300)}},
		{Kind: KindGroup, Label: "plain five", Value: Percent{Rate: dec(5)}},
	}

	res := Resolve(dec(10000), items, candidates)

	require.NotNil(t, res.Winner)
	assert.Equal(t, "plain five", res.Winner.Label)
}

func TestResolveMinCartAmountFiltersCandidate(t *testing.T) {
	items := []LineItem{catalogItem(1, 900, 1)}
	candidates := []Candidate{
		{Kind: KindGroup, Label: "big spender", Value: Percent{Rate: dec(20)}, MinCartAmount: decPtr(1000)},
	}

	res := Resolve(dec(900), items, candidates)

	assert.Nil(t, res.Winner)
	require.Len(t, res.Others, 1)
	assert.True(t, res.Others[0].Rejected)
	assert.Contains(t, res.Others[0].Reason, "below the required minimum")
}

func TestResolveRestrictionNeedsMatchingItem(t *testing.T) {
	brake := uint(7)
	items := []LineItem{
		{ID: 1, Ref: CatalogRef{ProductID: 1, CategoryIDs: []uint{brake}}, UnitPrice: dec(2000), Quantity: 1},
	}
	matching := Candidate{Kind: KindGroup, Label: "brakes", Value: Percent{Rate: dec(10)}, CategoryIDs: []uint{brake}}
	nonMatching := Candidate{Kind: KindGroup, Label: "filters", Value: Percent{Rate: dec(50)}, CategoryIDs: []uint{99}}

	res := Resolve(dec(2000), items, []Candidate{matching, nonMatching})

	require.NotNil(t, res.Winner)
	assert.Equal(t, "brakes", res.Winner.Label)
	require.Len(t, res.Others, 1)
	assert.True(t, res.Others[0].Rejected)
	assert.Contains(t, res.Others[0].Reason, "no cart item matches")
}

func TestResolveRestrictedCandidateIgnoresAdHocItems(t *testing.T) {
	items := []LineItem{
		{ID: 1, Ref: AdHocRef{Title: "custom bumper"}, UnitPrice: dec(5000), Quantity: 1},
	}
	candidates := []Candidate{
		{Kind: KindGroup, Label: "brakes only", Value: Percent{Rate: dec(10)}, CategoryIDs: []uint{7}},
	}

	res := Resolve(dec(5000), items, candidates)

	assert.Nil(t, res.Winner)
}

func TestResolveRejectedPromoNeverWins(t *testing.T) {
	items := []LineItem{catalogItem(1, 3000, 1)}
	candidates := []Candidate{
		{Kind: KindPromo, Label: "EXPIRED", Value: Percent{Rate: dec(30)}, Rejected: true, Reason: "promo code has expired"},
	}

	res := Resolve(dec(3000), items, candidates)

	assert.Nil(t, res.Winner)
	require.Len(t, res.Others, 1)
	assert.Equal(t, "promo code has expired", res.Others[0].Reason)
}

func TestResolveNoCandidates(t *testing.T) {
	res := Resolve(dec(1000), []LineItem{catalogItem(1, 1000, 1)}, nil)
	assert.Nil(t, res.Winner)
	assert.Empty(t, res.Others)
}
