package internal

// DedupeRecords drops records whose request id was already seen, keeping the
// first occurrence. Query pages can overlap when new calls land mid-pagination,
// so the fetcher runs every result set through this.
func DedupeRecords(records []RawRecord) []RawRecord {
	if len(records) == 0 {
		return records
	}

	seen := make(map[string]bool, len(records))
	result := make([]RawRecord, 0, len(records))
	for _, rec := range records {
		// Records without an id cannot be matched up; keep them all.
		if rec.RequestID != "" {
			if seen[rec.RequestID] {
				continue
			}
			seen[rec.RequestID] = true
		}
		result = append(result, rec)
	}
	return result
}
