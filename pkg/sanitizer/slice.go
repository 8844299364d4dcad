package sanitizer

// NormalizeStringSlice applies normalizer to each item and drops empty values
// and duplicates, keeping first-seen order.
func NormalizeStringSlice(items []string, normalizer func(string) string) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}

	return result
}

func NormalizeIdentifiers(ids []string) []string {
	return NormalizeStringSlice(ids, NormalizeIdentifier)
}
