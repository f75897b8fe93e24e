package services

import (
	"fmt"
	"sort"

	"ai-startup-map/models"
)

// FlagLift is how much more often a flag is set inside a cluster than overall.
type FlagLift struct {
	Column string
	Lift   float64
}

// ClusterLifts ranks the flag columns of cluster id by lift (cluster mean
// minus overall mean), highest first; equal lifts keep column order. Only
// positive lifts are returned.
func ClusterLifts(t *models.Table, labels []int, id int) []FlagLift {
	n := t.Len()
	if n == 0 {
		return nil
	}
	var lifts []FlagLift
	for _, col := range t.FeatureColumns {
		var total, inside, members float64
		for i := range t.Entities {
			v := float64(t.Entities[i].Feature(col))
			total += v
			if labels[i] == id {
				inside += v
				members++
			}
		}
		if members == 0 {
			continue
		}
		if lift := inside/members - total/float64(n); lift > 0 {
			lifts = append(lifts, FlagLift{Column: col, Lift: lift})
		}
	}
	sort.SliceStable(lifts, func(i, j int) bool { return lifts[i].Lift > lifts[j].Lift })
	return lifts
}

// NameClusters names every cluster after its one or two most distinctive
// flags, e.g. "LLM & B2B". Names are unique within the table; a cluster with
// no distinctive flag, or whose candidates are all taken, is "Segment <id>".
func NameClusters(t *models.Table, labels []int) map[int]string {
	ids := make([]int, 0)
	seen := make(map[int]bool)
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			ids = append(ids, l)
		}
	}
	sort.Ints(ids)

	names := make(map[int]string, len(ids))
	used := make(map[string]bool)
	for _, id := range ids {
		name := ""
		for _, candidate := range nameCandidates(ClusterLifts(t, labels, id)) {
			if !used[candidate] {
				name = candidate
				break
			}
		}
		if name == "" {
			name = fmt.Sprintf("Segment %d", id)
		}
		used[name] = true
		names[id] = name
	}
	return names
}

// nameCandidates yields "top & second" first, then the top flag paired with
// each later flag, then single flags in rank order.
func nameCandidates(lifts []FlagLift) []string {
	var out []string
	if len(lifts) == 0 {
		return out
	}
	top := DisplayName(lifts[0].Column)
	for _, l := range lifts[1:] {
		if other := DisplayName(l.Column); other != top {
			out = append(out, top+" & "+other)
		}
	}
	for _, l := range lifts {
		out = append(out, DisplayName(l.Column))
	}
	return out
}
