package merge

import "nerclient/internal/domain"

// Merge folds inc into acc and returns a new map; neither input is modified.
//
// A category present on only one side is copied as is. A category present on
// both sides is combined with the schema's strategy for it, or Overwrite when
// the schema does not declare it. Append never deduplicates, so merging a map
// with itself doubles every list.
func Merge(acc, inc domain.EntityMap, schema Schema) domain.EntityMap {
	out := make(domain.EntityMap, len(acc)+len(inc))
	for category, mentions := range acc {
		out[category] = cloneList(mentions)
	}

	for category, mentions := range inc {
		prev, ok := out[category]
		if !ok {
			out[category] = cloneList(mentions)
			continue
		}

		strategy, declared := schema[category]
		if !declared {
			strategy = Overwrite
		}

		out[category] = combine(strategy, prev, mentions)
	}

	return out
}

func combine(strategy Strategy, prev, next []string) []string {
	switch strategy {
	case Append:
		out := make([]string, 0, len(prev)+len(next))
		out = append(out, prev...)
		return append(out, next...)
	case AppendUnique:
		seen := make(map[string]struct{}, len(prev)+len(next))
		for _, mention := range prev {
			seen[mention] = struct{}{}
		}

		out := append(make([]string, 0, len(prev)+len(next)), prev...)
		for _, mention := range next {
			if _, ok := seen[mention]; ok {
				continue
			}
			seen[mention] = struct{}{}
			out = append(out, mention)
		}

		return out
	default:
		return cloneList(next)
	}
}

func cloneList(mentions []string) []string {
	if mentions == nil {
		return nil
	}

	out := make([]string, len(mentions))
	copy(out, mentions)

	return out
}
