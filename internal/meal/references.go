package meal

// The functions below never modify their input. Callers compare the result
// with the loaded list to decide whether a write is needed.

func withReference(refs []FoodReference, ref FoodReference) []FoodReference {
	next := make([]FoodReference, 0, len(refs)+1)
	next = append(next, refs...)
	return append(next, ref)
}

func withUpdatedReference(refs []FoodReference, id string, weight float64, unit Unit) []FoodReference {
	next := make([]FoodReference, len(refs))
	copy(next, refs)

	for i := range next {
		if next[i].ID == id {
			next[i].Weight = weight
			next[i].Unit = unit
			break
		}
	}
	return next
}

func withoutReference(refs []FoodReference, id string) []FoodReference {
	next := make([]FoodReference, 0, len(refs))
	for _, ref := range refs {
		if ref.ID != id {
			next = append(next, ref)
		}
	}
	return next
}
