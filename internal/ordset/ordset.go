// Package ordset treats string slices as insertion-ordered sets.
package ordset

// Union returns the distinct values of all lists in first-seen order.
func Union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, l := range lists {
		for _, v := range l {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Add appends v unless it is already present. Existing duplicates in list
// are collapsed as well.
func Add(list []string, v string) []string {
	return Union(list, []string{v})
}

// Remove drops every occurrence of v.
func Remove(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func Contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
