// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"math"
	"sort"

	"github.com/danielhkuo/yearbook-vote/models"
)

// Tally maps candidate id to vote count for one category
type Tally map[string]int

// Total returns the sum of all counts
func (t Tally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// Compute counts the votes cast in categoryID
func Compute(votes []models.Vote, categoryID string) Tally {
	t := make(Tally)
	for _, v := range votes {
		if v.CategoryID == categoryID {
			t[v.CandidateID]++
		}
	}
	return t
}

// Rank orders candidates by descending count. Equal counts keep input order.
func Rank(candidates []models.Candidate, t Tally) []models.RankedCandidate {
	ranked := make([]models.RankedCandidate, len(candidates))
	total := 0
	for i, c := range candidates {
		ranked[i] = models.RankedCandidate{Candidate: c, Votes: t[c.ID]}
		total += ranked[i].Votes
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Votes > ranked[j].Votes
	})

	leader := 0
	if len(ranked) > 0 {
		leader = ranked[0].Votes
	}

	for i := range ranked {
		ranked[i].Rank = i + 1 // 1-indexed ranking
		ranked[i].Percent = percentOf(ranked[i].Votes, total)
		ranked[i].BarPercent = percentOf(ranked[i].Votes, leader)
	}

	return ranked
}

// Winner returns the first ranked candidate. ok is false only when the
// list is empty; a category where nobody has votes still has a winner.
func Winner(ranked []models.RankedCandidate) (winner models.RankedCandidate, ok bool) {
	if len(ranked) == 0 {
		return models.RankedCandidate{}, false
	}
	return ranked[0], true
}

// ParticipationRate is the share of possible ballots cast, in [0, 100].
func ParticipationRate(totalVotes, eligibleVoters, categoryCount int) float64 {
	possible := eligibleVoters * categoryCount
	if possible <= 0 || totalVotes <= 0 {
		return 0
	}

	rate := float64(totalVotes) / float64(possible) * 100
	return math.Min(rate, 100)
}

// RoundPercent rounds half up, matching how the results screens display it
func RoundPercent(p float64) int {
	return int(math.Floor(p + 0.5))
}

// Summarize builds one result per category, in category order.
// Categories without candidates are kept with an empty list.
func Summarize(categories []models.Category, candidates []models.Candidate, votes []models.Vote) []models.CategoryResult {
	byCategory := make(map[string][]models.Candidate, len(categories))
	for _, c := range candidates {
		byCategory[c.CategoryID] = append(byCategory[c.CategoryID], c)
	}

	results := make([]models.CategoryResult, 0, len(categories))
	for _, cat := range categories {
		t := Compute(votes, cat.ID)
		ranked := Rank(byCategory[cat.ID], t)

		result := models.CategoryResult{
			Category:   cat,
			TotalVotes: t.Total(),
			Candidates: ranked,
		}
		if w, ok := Winner(ranked); ok {
			result.WinnerID = w.ID
		}
		results = append(results, result)
	}

	return results
}

func percentOf(n, of int) int {
	if of <= 0 {
		return 0
	}
	return RoundPercent(float64(n) / float64(of) * 100)
}
