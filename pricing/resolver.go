package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Resolution is the outcome of discount selection: at most one winner, plus
// every other candidate annotated with the reason it was not chosen.
type Resolution struct {
	Winner *Candidate
	Others []Candidate
}

// Resolve picks the single applicable discount for a priced cart.
//
// Filtering: candidates already rejected upstream (failed promo validation)
// are kept for transparency but never win; candidates whose MinCartAmount
// exceeds the subtotal, or whose category/brand restriction matches no cart
// item, are rejected with a reason.
//
// Selection: among survivors, the highest-priority kind wins
// (personal > group > promo); within a tier the larger realized value at the
// current subtotal wins, first-seen on a tie.
func Resolve(subtotal decimal.Decimal, items []LineItem, candidates []Candidate) Resolution {
	var res Resolution
	eligible := make([]int, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if c.Rejected {
			continue
		}
		if c.MinCartAmount != nil && subtotal.LessThan(*c.MinCartAmount) {
			c.Rejected = true
			c.Reason = fmt.Sprintf("cart amount %s is below the required minimum %s", subtotal, c.MinCartAmount)
			continue
		}
		if c.restricted() && !matchesAny(*c, items) {
			c.Rejected = true
			c.Reason = "no cart item matches the discount's category or brand restriction"
			continue
		}
		eligible = append(eligible, i)
	}

	winner := -1
	for _, i := range eligible {
		if winner == -1 {
			winner = i
			continue
		}
		w, c := candidates[winner], candidates[i]
		switch {
		case c.Kind < w.Kind:
			winner = i
		case c.Kind == w.Kind && c.Value.Realized(subtotal).GreaterThan(w.Value.Realized(subtotal)):
			winner = i
		}
	}

	for _, i := range eligible {
		if i == winner {
			continue
		}
		c := candidates[i]
		w := candidates[winner]
		if c.Kind > w.Kind {
			c.Reason = fmt.Sprintf("outranked by a %s discount", w.Kind)
		} else {
			c.Reason = fmt.Sprintf("smaller value than the selected %s discount at the current cart amount", w.Kind)
		}
		res.Others = append(res.Others, c)
	}
	for _, c := range candidates {
		if c.Rejected {
			res.Others = append(res.Others, c)
		}
	}

	if winner >= 0 {
		w := candidates[winner]
		res.Winner = &w
	}
	return res
}

func matchesAny(c Candidate, items []LineItem) bool {
	for _, li := range items {
		if c.appliesTo(li.Ref) {
			return true
		}
	}
	return false
}
