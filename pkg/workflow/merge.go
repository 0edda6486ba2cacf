package workflow

// DeepMerge combines an agent output with human modifications. Nested maps
// merge recursively, every other conflict resolves in favor of the
// modification. Neither input is mutated.
func DeepMerge(original map[string]any, modifications map[string]any) map[string]any {
	merged := make(map[string]any, len(original)+len(modifications))
	for key, value := range original {
		merged[key] = value
	}
	for key, value := range modifications {
		existing, ok := merged[key]
		if !ok {
			merged[key] = value
			continue
		}
		existingMap, existingIsMap := existing.(map[string]any)
		valueMap, valueIsMap := value.(map[string]any)
		if existingIsMap && valueIsMap {
			merged[key] = DeepMerge(existingMap, valueMap)
			continue
		}
		merged[key] = value
	}
	return merged
}
